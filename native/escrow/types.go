package escrow

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Address identifies an account: a buyer, seller, arbitrator, token contract
// or the ledger's own custody account.
type Address [20]byte

// ParseAddress decodes a 20-byte hex address, with or without a 0x prefix.
func ParseAddress(s string) (Address, error) {
	var addr Address
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("escrow: invalid address %q: %w", s, err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("escrow: invalid address length %d", len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// Hex returns the canonical 0x-prefixed lowercase encoding.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the all-zero sentinel.
func (a Address) IsZero() bool { return a == (Address{}) }

// MarshalText implements encoding.TextMarshaler so addresses serialise as hex
// strings in JSON-encoded deals and RPC payloads.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// DealStatus represents the lifecycle states of a deal. Statuses only ever
// advance forward; Released and Refunded are terminal.
type DealStatus uint8

const (
	StatusNone DealStatus = iota
	StatusCreated
	StatusDeposited
	StatusReleased
	StatusRefunded
)

// Valid reports whether the status value is within the supported range.
func (s DealStatus) Valid() bool {
	switch s {
	case StatusNone, StatusCreated, StatusDeposited, StatusReleased, StatusRefunded:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s DealStatus) Terminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

func (s DealStatus) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusCreated:
		return "created"
	case StatusDeposited:
		return "deposited"
	case StatusReleased:
		return "released"
	case StatusRefunded:
		return "refunded"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Deal captures the immutable terms and runtime status of a single escrowed
// transaction. Identifiers are dense, ascending and never reused. Buyer,
// seller, token, amount and timeout never change after creation; deals are
// never deleted and remain queryable as audit records.
type Deal struct {
	ID              uint64     `json:"id"`
	Buyer           Address    `json:"buyer"`
	Seller          Address    `json:"seller"`
	Token           Address    `json:"token"`
	Amount          *big.Int   `json:"amount"`
	TimeoutDuration int64      `json:"timeoutDuration"`
	DepositedAt     int64      `json:"depositedAt"`
	TimeoutAt       int64      `json:"timeoutAt"`
	Status          DealStatus `json:"status"`
}

// Clone returns a deep copy of the deal so callers can safely mutate the copy
// without affecting the stored instance.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Amount != nil {
		clone.Amount = new(big.Int).Set(d.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// SanitizeDeal validates the supplied deal and returns a cloned instance with
// a non-nil amount. The function does not mutate the original value.
func SanitizeDeal(d *Deal) (*Deal, error) {
	if d == nil {
		return nil, fmt.Errorf("escrow: nil deal")
	}
	clone := d.Clone()
	if clone.Amount.Sign() < 0 {
		return nil, fmt.Errorf("escrow: deal amount must be non-negative")
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("escrow: invalid deal status: %d", clone.Status)
	}
	return clone, nil
}
