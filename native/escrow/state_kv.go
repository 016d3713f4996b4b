package escrow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"escrowd/storage"
)

const (
	dealKeyPrefix = "escrow/deal/"
	nextIDKey     = "escrow/nextid"
)

// KVState persists deals in a key-value database. Deals are JSON-encoded
// under escrow/deal/<id>; the allocation counter lives under escrow/nextid.
type KVState struct {
	mu sync.Mutex
	db storage.Database
}

// NewKVState wraps a storage backend as a LedgerState.
func NewKVState(db storage.Database) *KVState {
	return &KVState{db: db}
}

func dealKey(id uint64) []byte {
	return []byte(dealKeyPrefix + strconv.FormatUint(id, 10))
}

// DealCreate implements LedgerState. The counter write follows the deal write
// so a crash between the two can only leave an allocated-but-unrecorded
// counter, never a dangling identifier.
func (s *KVState) DealCreate(deal *Deal) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.readNextID()
	if err != nil {
		return 0, err
	}
	sanitized, err := SanitizeDeal(deal)
	if err != nil {
		return 0, err
	}
	sanitized.ID = next
	if err := s.writeDeal(sanitized); err != nil {
		return 0, err
	}
	if err := s.db.Put([]byte(nextIDKey), []byte(strconv.FormatUint(next+1, 10))); err != nil {
		return 0, fmt.Errorf("escrow: persist id counter: %w", err)
	}
	deal.ID = next
	return next, nil
}

// DealPut implements LedgerState.
func (s *KVState) DealPut(deal *Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sanitized, err := SanitizeDeal(deal)
	if err != nil {
		return err
	}
	return s.writeDeal(sanitized)
}

// DealGet implements LedgerState.
func (s *KVState) DealGet(id uint64) (*Deal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.db.Get(dealKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("escrow: load deal %d: %w", id, err)
	}
	deal := &Deal{}
	if err := json.Unmarshal(raw, deal); err != nil {
		return nil, false, fmt.Errorf("escrow: decode deal %d: %w", id, err)
	}
	return deal, true, nil
}

func (s *KVState) readNextID() (uint64, error) {
	raw, err := s.db.Get([]byte(nextIDKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("escrow: load id counter: %w", err)
	}
	next, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("escrow: decode id counter: %w", err)
	}
	return next, nil
}

func (s *KVState) writeDeal(deal *Deal) error {
	raw, err := json.Marshal(deal)
	if err != nil {
		return fmt.Errorf("escrow: encode deal %d: %w", deal.ID, err)
	}
	if err := s.db.Put(dealKey(deal.ID), raw); err != nil {
		return fmt.Errorf("escrow: persist deal %d: %w", deal.ID, err)
	}
	return nil
}
