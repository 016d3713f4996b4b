package escrow

import "math/big"

// TokenTransfer is the external fungible-token collaborator the ledger moves
// value through. Implementations hold the balances; the ledger only directs
// transfers and never inspects them.
//
// Both calls may fail (insufficient balance, missing allowance, transfer
// rejected); any failure aborts the calling escrow operation with no partial
// state change. Implementations may synchronously call back into the ledger
// before returning; the ledger's reentrancy guard rejects such calls.
type TokenTransfer interface {
	// TransferFrom pulls amount units of token from owner into recipient.
	// Used during Deposit with the ledger's custody account as recipient;
	// requires an allowance granted by the owner out-of-band.
	TransferFrom(token, owner, recipient Address, amount *big.Int) error

	// Transfer pushes amount units of token from the ledger's custody account
	// to recipient. Used during Release, Refund and TimeoutRefund.
	Transfer(token, recipient Address, amount *big.Int) error
}
