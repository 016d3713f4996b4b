package escrow

import (
	"errors"
	"math/big"
	"sync/atomic"
	"time"

	"escrowd/core/events"
)

// DefaultMinTimeout is the floor applied to deal timeouts when the ledger is
// constructed without an explicit one.
const DefaultMinTimeout int64 = 60

// MaxTimeoutDuration caps deal timeouts at one hundred years. The cap keeps
// TimeoutAt = DepositedAt + TimeoutDuration within int64 range, so the
// deadline guard can never wrap negative and open the refund path early.
const MaxTimeoutDuration int64 = 100 * 365 * 24 * 60 * 60

// Ledger is the custodial escrow state machine. It owns the deal records,
// delegates value movement to an external TokenTransfer collaborator and
// enforces the transition table:
//
//	Created   --Deposit (buyer)--------------------> Deposited
//	Deposited --Release (buyer|arbitrator)---------> Released
//	Deposited --Refund (seller|arbitrator)---------> Refunded
//	Deposited --TimeoutRefund (buyer, after due)---> Refunded
//
// Released and Refunded are terminal. Every state-mutating operation persists
// the new status before touching the token collaborator, and all of them
// share a single non-reentrant lock, so a callback from the collaborator into
// the ledger fails with ErrReentrantCall instead of interleaving.
type Ledger struct {
	state      LedgerState
	token      TokenTransfer
	custody    Address
	arbitrator Address
	minTimeout int64
	emitter    events.Emitter
	nowFn      func() int64

	busy atomic.Bool
}

// NewLedger wires the ledger with its persistence backend, token collaborator
// and the custody and arbitrator identities. Both identities are immutable
// afterwards; a zero arbitrator or custody address is rejected.
func NewLedger(state LedgerState, token TokenTransfer, custody, arbitrator Address) (*Ledger, error) {
	if custody.IsZero() || arbitrator.IsZero() {
		return nil, ErrZeroIdentity
	}
	return &Ledger{
		state:      state,
		token:      token,
		custody:    custody,
		arbitrator: arbitrator,
		minTimeout: DefaultMinTimeout,
		emitter:    events.NoopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
	}, nil
}

// SetMinTimeout overrides the minimum timeout floor. Values below 1 second
// reset the floor to the default.
func (l *Ledger) SetMinTimeout(seconds int64) {
	if seconds < 1 {
		l.minTimeout = DefaultMinTimeout
		return
	}
	l.minTimeout = seconds
}

// SetEmitter configures the event emitter. Passing nil resets the emitter to
// a no-op implementation.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetNowFunc overrides the time source used by the ledger. Primarily intended
// for tests to provide deterministic timestamps.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// Arbitrator returns the trusted third identity configured at construction.
func (l *Ledger) Arbitrator() Address { return l.arbitrator }

func (l *Ledger) emit(evt *events.Event) {
	if l.emitter != nil && evt != nil {
		l.emitter.Emit(evt)
	}
}

func (l *Ledger) now() int64 { return l.nowFn() }

// enter acquires the ledger-wide non-reentrant lock. The lock deliberately
// fails instead of blocking: a blocked reentrant call would deadlock, and an
// interleaved one could observe half-finished transitions.
func (l *Ledger) enter() error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (l *Ledger) exit() { l.busy.Store(false) }

func (l *Ledger) loadDeal(id uint64) (*Deal, error) {
	if l.state == nil {
		return nil, errNilState
	}
	deal, ok, err := l.state.DealGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDealNotFound
	}
	return deal, nil
}

// Create opens a new deal on behalf of buyer and returns its identifier.
// Deposit fields stay zeroed until the buyer funds the deal.
func (l *Ledger) Create(buyer, seller, token Address, amount *big.Int, timeoutDuration int64) (uint64, error) {
	if err := l.enter(); err != nil {
		return 0, err
	}
	defer l.exit()
	if l.state == nil {
		return 0, errNilState
	}
	if buyer.IsZero() || seller.IsZero() || token.IsZero() {
		return 0, ErrZeroIdentity
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if timeoutDuration < l.minTimeout {
		return 0, ErrTimeoutTooShort
	}
	if timeoutDuration > MaxTimeoutDuration {
		return 0, ErrTimeoutTooLong
	}
	deal := &Deal{
		Buyer:           buyer,
		Seller:          seller,
		Token:           token,
		Amount:          new(big.Int).Set(amount),
		TimeoutDuration: timeoutDuration,
		Status:          StatusCreated,
	}
	id, err := l.state.DealCreate(deal)
	if err != nil {
		return 0, err
	}
	deal.ID = id
	l.emit(NewCreatedEvent(deal))
	return id, nil
}

// Deposit pulls the deal amount from the buyer into custody. The Deposited
// status and timestamps are persisted before the token call so a reentrant
// observer can never see a still-Created deal, and the prior record is
// restored if the transfer fails.
func (l *Ledger) Deposit(id uint64, caller Address) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	deal, err := l.loadDeal(id)
	if err != nil {
		return err
	}
	if deal.Status != StatusCreated {
		return ErrInvalidState
	}
	if caller != deal.Buyer {
		return ErrUnauthorized
	}
	if l.token == nil {
		return errNilToken
	}

	prior := deal.Clone()
	now := l.now()
	deal.Status = StatusDeposited
	deal.DepositedAt = now
	deal.TimeoutAt = now + deal.TimeoutDuration
	if err := l.state.DealPut(deal); err != nil {
		return err
	}
	if err := l.token.TransferFrom(deal.Token, deal.Buyer, l.custody, deal.Amount); err != nil {
		if putErr := l.state.DealPut(prior); putErr != nil {
			return errors.Join(err, putErr)
		}
		return err
	}
	l.emit(NewDepositedEvent(deal))
	return nil
}

// Release settles the deal in favour of the seller. Only the buyer or the
// arbitrator may release.
func (l *Ledger) Release(id uint64, caller Address) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	deal, err := l.loadDeal(id)
	if err != nil {
		return err
	}
	if deal.Status != StatusDeposited {
		return ErrInvalidState
	}
	if caller != deal.Buyer && caller != l.arbitrator {
		return ErrUnauthorized
	}
	return l.settle(deal, StatusReleased, deal.Seller, NewReleasedEvent)
}

// Refund returns the deal amount to the buyer, initiated by the seller side.
// Only the seller or the arbitrator may refund.
func (l *Ledger) Refund(id uint64, caller Address) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	deal, err := l.loadDeal(id)
	if err != nil {
		return err
	}
	if deal.Status != StatusDeposited {
		return ErrInvalidState
	}
	if caller != deal.Seller && caller != l.arbitrator {
		return ErrUnauthorized
	}
	return l.settle(deal, StatusRefunded, deal.Buyer, func(d *Deal) *events.Event {
		return NewRefundedEvent(d, RefundReasonCounterparty)
	})
}

// TimeoutRefund is the buyer's unilateral escape hatch: once the timeout has
// elapsed the buyer reclaims the funds without seller or arbitrator
// cooperation.
func (l *Ledger) TimeoutRefund(id uint64, caller Address) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	deal, err := l.loadDeal(id)
	if err != nil {
		return err
	}
	if deal.Status != StatusDeposited {
		return ErrInvalidState
	}
	if caller != deal.Buyer {
		return ErrUnauthorized
	}
	if l.now() < deal.TimeoutAt {
		return ErrTimeoutNotReached
	}
	return l.settle(deal, StatusRefunded, deal.Buyer, func(d *Deal) *events.Event {
		return NewRefundedEvent(d, RefundReasonTimeout)
	})
}

// Get returns a snapshot of the deal. Escrow metadata is public: there is no
// authorization check, and the returned copy never aliases stored state.
func (l *Ledger) Get(id uint64) (*Deal, error) {
	return l.loadDeal(id)
}

// settle performs the single terminal transition: persist the new status
// first, then push the amount out of custody. Exactly one successful
// transfer-out happens per deal because the persisted terminal status blocks
// every later attempt, and a failed transfer rolls the record back so the
// caller may retry.
func (l *Ledger) settle(deal *Deal, status DealStatus, recipient Address, eventFn func(*Deal) *events.Event) error {
	if l.token == nil {
		return errNilToken
	}
	prior := deal.Clone()
	deal.Status = status
	if err := l.state.DealPut(deal); err != nil {
		return err
	}
	if err := l.token.Transfer(deal.Token, recipient, deal.Amount); err != nil {
		if putErr := l.state.DealPut(prior); putErr != nil {
			return errors.Join(err, putErr)
		}
		return err
	}
	l.emit(eventFn(deal))
	return nil
}
