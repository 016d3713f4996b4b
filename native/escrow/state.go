package escrow

// LedgerState is the persistence backend for deal records. Implementations
// own all storage; they accept and return clones only, never aliases into
// stored data.
type LedgerState interface {
	// DealCreate assigns the next dense ascending identifier to the deal,
	// persists it and returns the identifier. Identifiers start at 0 and are
	// never reused.
	DealCreate(*Deal) (uint64, error)

	// DealPut persists an updated deal record under its existing identifier.
	DealPut(*Deal) error

	// DealGet loads the deal stored under id. The boolean reports existence;
	// absent identifiers are not an error at this layer.
	DealGet(id uint64) (*Deal, bool, error)
}
