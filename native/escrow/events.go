package escrow

import (
	"strconv"

	"escrowd/core/events"
)

const (
	EventTypeDealCreated = "escrow.created"
	EventTypeDeposited   = "escrow.deposited"
	EventTypeReleased    = "escrow.released"
	EventTypeRefunded    = "escrow.refunded"
)

// Refund reason attribute values carried by escrow.refunded events.
const (
	RefundReasonCounterparty = "refund"
	RefundReasonTimeout      = "timeout"
)

// NewCreatedEvent returns the canonical event payload for a newly created
// deal, carrying all immutable deal parameters.
func NewCreatedEvent(d *Deal) *events.Event {
	evt := newDealEvent(EventTypeDealCreated, d)
	if d != nil {
		evt.Attributes["seller"] = d.Seller.Hex()
		evt.Attributes["token"] = d.Token.Hex()
		evt.Attributes["timeoutDuration"] = strconv.FormatInt(d.TimeoutDuration, 10)
	}
	return evt
}

// NewDepositedEvent returns the canonical event payload emitted when the
// buyer's funds enter custody.
func NewDepositedEvent(d *Deal) *events.Event {
	evt := newDealEvent(EventTypeDeposited, d)
	if d != nil {
		evt.Attributes["depositedAt"] = strconv.FormatInt(d.DepositedAt, 10)
		evt.Attributes["timeoutAt"] = strconv.FormatInt(d.TimeoutAt, 10)
	}
	return evt
}

// NewReleasedEvent returns the canonical event payload for a settlement in
// favour of the seller.
func NewReleasedEvent(d *Deal) *events.Event {
	evt := newDealEvent(EventTypeReleased, d)
	if d != nil {
		evt.Attributes["seller"] = d.Seller.Hex()
	}
	return evt
}

// NewRefundedEvent returns the canonical event payload for a return of funds
// to the buyer. The reason distinguishes counterparty refunds from timeout
// refunds; it is informational only.
func NewRefundedEvent(d *Deal, reason string) *events.Event {
	evt := newDealEvent(EventTypeRefunded, d)
	if reason != "" {
		evt.Attributes["reason"] = reason
	}
	return evt
}

func newDealEvent(eventType string, d *Deal) *events.Event {
	attrs := make(map[string]string)
	if d == nil {
		return &events.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeDeal(d)
	if err != nil {
		return &events.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(sanitized.ID, 10)
	attrs["buyer"] = sanitized.Buyer.Hex()
	attrs["amount"] = sanitized.Amount.String()
	return &events.Event{Type: eventType, Attributes: attrs}
}
