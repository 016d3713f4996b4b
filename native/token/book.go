// Package token provides an in-process account book implementing the
// fungible-token surface the escrow ledger consumes. Deployments that settle
// against an external token service substitute their own TokenTransfer.
package token

import (
	"errors"
	"math/big"
	"sync"

	"escrowd/native/escrow"
)

var (
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrInvalidAmount         = errors.New("token: amount must be positive")
)

type balanceKey struct {
	token   escrow.Address
	account escrow.Address
}

type allowanceKey struct {
	token   escrow.Address
	owner   escrow.Address
	spender escrow.Address
}

// Book tracks per-token balances and allowances. The operator is the escrow
// ledger's custody account: Transfer debits it, and TransferFrom spends
// allowances granted to it.
type Book struct {
	mu         sync.Mutex
	operator   escrow.Address
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
}

// NewBook creates an empty account book operated on behalf of operator.
func NewBook(operator escrow.Address) *Book {
	return &Book{
		operator:   operator,
		balances:   make(map[balanceKey]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

// Mint credits freshly issued units to an account.
func (b *Book) Mint(token, account escrow.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(token, account, amount)
	return nil
}

// BalanceOf returns the account's balance for the token.
func (b *Book) BalanceOf(token, account escrow.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balance(token, account))
}

// Approve grants the operator permission to pull up to amount units from
// owner. The grant replaces any previous one.
func (b *Book) Approve(token, owner escrow.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowances[allowanceKey{token, owner, b.operator}] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns the remaining amount the operator may pull from owner.
func (b *Book) Allowance(token, owner escrow.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.allowance(token, owner))
}

// TransferFrom implements escrow.TokenTransfer. It spends the owner's
// allowance to the operator and moves the amount to recipient.
func (b *Book) TransferFrom(tok, owner, recipient escrow.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	allowance := b.allowance(tok, owner)
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	balance := b.balance(tok, owner)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.allowances[allowanceKey{tok, owner, b.operator}] = new(big.Int).Sub(allowance, amount)
	b.balances[balanceKey{tok, owner}] = new(big.Int).Sub(balance, amount)
	b.credit(tok, recipient, amount)
	return nil
}

// Transfer implements escrow.TokenTransfer, moving value already held by the
// operator's custody account.
func (b *Book) Transfer(tok, recipient escrow.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	balance := b.balance(tok, b.operator)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.balances[balanceKey{tok, b.operator}] = new(big.Int).Sub(balance, amount)
	b.credit(tok, recipient, amount)
	return nil
}

func (b *Book) balance(token, account escrow.Address) *big.Int {
	if bal, ok := b.balances[balanceKey{token, account}]; ok {
		return bal
	}
	return big.NewInt(0)
}

func (b *Book) allowance(token, owner escrow.Address) *big.Int {
	if a, ok := b.allowances[allowanceKey{token, owner, b.operator}]; ok {
		return a
	}
	return big.NewInt(0)
}

func (b *Book) credit(token, account escrow.Address, amount *big.Int) {
	b.balances[balanceKey{token, account}] = new(big.Int).Add(b.balance(token, account), amount)
}
