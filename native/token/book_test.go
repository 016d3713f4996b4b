package token

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"escrowd/native/escrow"
	"escrowd/storage"
)

func addr(fill byte) escrow.Address {
	var a escrow.Address
	copy(a[:], bytes.Repeat([]byte{fill}, len(a)))
	return a
}

var (
	buyer   = addr(0x11)
	seller  = addr(0x22)
	tokAddr = addr(0x33)
	arb     = addr(0x44)
	custody = addr(0x55)
)

func TestBookTransferFromRequiresAllowanceAndBalance(t *testing.T) {
	book := NewBook(custody)

	err := book.TransferFrom(tokAddr, buyer, custody, big.NewInt(10))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected allowance error, got %v", err)
	}

	if err := book.Approve(tokAddr, buyer, big.NewInt(10)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	err = book.TransferFrom(tokAddr, buyer, custody, big.NewInt(10))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected balance error, got %v", err)
	}

	if err := book.Mint(tokAddr, buyer, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := book.TransferFrom(tokAddr, buyer, custody, big.NewInt(10)); err != nil {
		t.Fatalf("transfer-from: %v", err)
	}
	if got := book.BalanceOf(tokAddr, custody); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("custody balance %s, want 10", got)
	}
	if got := book.Allowance(tokAddr, buyer); got.Sign() != 0 {
		t.Fatalf("allowance must be consumed, got %s", got)
	}
}

func TestBookTransferDebitsOperator(t *testing.T) {
	book := NewBook(custody)
	if err := book.Transfer(tokAddr, seller, big.NewInt(5)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected balance error, got %v", err)
	}
	if err := book.Mint(tokAddr, custody, big.NewInt(5)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := book.Transfer(tokAddr, seller, big.NewInt(5)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := book.BalanceOf(tokAddr, seller); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("seller balance %s, want 5", got)
	}
	if got := book.BalanceOf(tokAddr, custody); got.Sign() != 0 {
		t.Fatalf("custody balance %s, want 0", got)
	}
}

func newScenario(t *testing.T) (*escrow.Ledger, *Book, func(int64)) {
	t.Helper()
	book := NewBook(custody)
	state := escrow.NewKVState(storage.NewMemDB())
	led, err := escrow.NewLedger(state, book, custody, arb)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	now := int64(1_000_000)
	led.SetNowFunc(func() int64 { return now })

	if err := book.Mint(tokAddr, buyer, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := book.Approve(tokAddr, buyer, big.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return led, book, func(v int64) { now = v }
}

// Create as buyer, deposit, release by buyer: the seller ends up with the
// full amount and any further transition fails.
func TestEscrowReleaseScenario(t *testing.T) {
	led, book, _ := newScenario(t)

	id, err := led.Create(buyer, seller, tokAddr, big.NewInt(100), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 0 {
		t.Fatalf("first deal id must be 0, got %d", id)
	}

	if err := led.Deposit(id, buyer); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := book.BalanceOf(tokAddr, custody); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("ledger must hold 100 after deposit, got %s", got)
	}
	if got := book.BalanceOf(tokAddr, buyer); got.Sign() != 0 {
		t.Fatalf("buyer must be debited, got %s", got)
	}

	if err := led.Release(id, buyer); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := book.BalanceOf(tokAddr, seller); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("seller must receive 100, got %s", got)
	}
	if err := led.Refund(id, seller); !errors.Is(err, escrow.ErrInvalidState) {
		t.Fatalf("refund after release must fail with ErrInvalidState, got %v", err)
	}
}

// One second before the deadline the timeout refund is rejected; at the
// deadline the buyer reclaims the funds without seller or arbitrator help.
func TestEscrowTimeoutScenario(t *testing.T) {
	led, book, setNow := newScenario(t)

	id, err := led.Create(buyer, seller, tokAddr, big.NewInt(100), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := led.Deposit(id, buyer); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	deal, err := led.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	setNow(deal.TimeoutAt - 1)
	if err := led.TimeoutRefund(id, buyer); !errors.Is(err, escrow.ErrTimeoutNotReached) {
		t.Fatalf("expected ErrTimeoutNotReached, got %v", err)
	}

	setNow(deal.TimeoutAt)
	if err := led.TimeoutRefund(id, buyer); err != nil {
		t.Fatalf("timeout refund: %v", err)
	}
	if got := book.BalanceOf(tokAddr, buyer); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("buyer must be made whole, got %s", got)
	}
	final, _ := led.Get(id)
	if final.Status != escrow.StatusRefunded {
		t.Fatalf("expected refunded, got %s", final.Status)
	}
}

// A deposit that fails inside the token stays fully rolled back: no balances
// move and the deal can be funded later.
func TestEscrowDepositFailureScenario(t *testing.T) {
	book := NewBook(custody)
	state := escrow.NewKVState(storage.NewMemDB())
	led, err := escrow.NewLedger(state, book, custody, arb)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	id, err := led.Create(buyer, seller, tokAddr, big.NewInt(100), 3600)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// No mint, no approve: the pull must fail.
	if err := led.Deposit(id, buyer); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected allowance failure, got %v", err)
	}
	deal, _ := led.Get(id)
	if deal.Status != escrow.StatusCreated {
		t.Fatalf("failed deposit must leave the deal created, got %s", deal.Status)
	}

	if err := book.Mint(tokAddr, buyer, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := book.Approve(tokAddr, buyer, big.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := led.Deposit(id, buyer); err != nil {
		t.Fatalf("deposit retry: %v", err)
	}
}
