package escrow

import "errors"

// Discrete precondition failures. Every violation aborts the whole operation
// with no partial effect; callers can branch on these with errors.Is.
var (
	// ErrDealNotFound is returned for identifiers never issued by Create.
	ErrDealNotFound = errors.New("escrow: deal not found")
	// ErrInvalidAmount is returned when a deal is created with a non-positive amount.
	ErrInvalidAmount = errors.New("escrow: amount must be positive")
	// ErrInvalidState is returned when a transition is attempted from a status
	// that does not permit it, including any attempt to leave a terminal state.
	ErrInvalidState = errors.New("escrow: invalid state for transition")
	// ErrUnauthorized is returned when the caller is not in the allowed
	// identity set for the transition.
	ErrUnauthorized = errors.New("escrow: caller not authorized")
	// ErrTimeoutNotReached is returned by TimeoutRefund before the deadline.
	ErrTimeoutNotReached = errors.New("escrow: timeout not reached")
	// ErrZeroIdentity is returned when a required identity is the zero address.
	ErrZeroIdentity = errors.New("escrow: zero identity")
	// ErrTimeoutTooShort is returned when the requested timeout is below the
	// configured floor.
	ErrTimeoutTooShort = errors.New("escrow: timeout below configured minimum")
	// ErrTimeoutTooLong is returned when the requested timeout exceeds
	// MaxTimeoutDuration, which keeps deadline arithmetic overflow-free.
	ErrTimeoutTooLong = errors.New("escrow: timeout above supported maximum")
	// ErrReentrantCall is returned when a state-mutating operation is entered
	// while another one is still in flight, typically via a token callback.
	ErrReentrantCall = errors.New("escrow: reentrant call rejected")
)

var (
	errNilState = errors.New("escrow: ledger state not configured")
	errNilToken = errors.New("escrow: token transfer not configured")
)
