package escrow

import (
	"math/big"
	"testing"
)

func testEventDeal() *Deal {
	return &Deal{
		ID:              4,
		Buyer:           testBuyer,
		Seller:          testSeller,
		Token:           testToken,
		Amount:          big.NewInt(250),
		TimeoutDuration: 7200,
		DepositedAt:     100,
		TimeoutAt:       7300,
		Status:          StatusDeposited,
	}
}

func TestCreatedEventAttributes(t *testing.T) {
	evt := NewCreatedEvent(testEventDeal())
	if evt.Type != EventTypeDealCreated {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	want := map[string]string{
		"id":              "4",
		"buyer":           testBuyer.Hex(),
		"seller":          testSeller.Hex(),
		"token":           testToken.Hex(),
		"amount":          "250",
		"timeoutDuration": "7200",
	}
	for key, expect := range want {
		if got := evt.Attributes[key]; got != expect {
			t.Fatalf("attribute %q: got %q want %q", key, got, expect)
		}
	}
}

func TestDepositedEventAttributes(t *testing.T) {
	evt := NewDepositedEvent(testEventDeal())
	if evt.Type != EventTypeDeposited {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	if evt.Attributes["depositedAt"] != "100" || evt.Attributes["timeoutAt"] != "7300" {
		t.Fatalf("deposit timestamps missing: %v", evt.Attributes)
	}
	if evt.Attributes["buyer"] != testBuyer.Hex() || evt.Attributes["amount"] != "250" {
		t.Fatalf("core attributes missing: %v", evt.Attributes)
	}
}

func TestReleasedEventAttributes(t *testing.T) {
	evt := NewReleasedEvent(testEventDeal())
	if evt.Type != EventTypeReleased {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	if evt.Attributes["seller"] != testSeller.Hex() {
		t.Fatalf("released event must name the seller: %v", evt.Attributes)
	}
}

func TestRefundedEventReason(t *testing.T) {
	evt := NewRefundedEvent(testEventDeal(), RefundReasonTimeout)
	if evt.Type != EventTypeRefunded {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	if evt.Attributes["reason"] != RefundReasonTimeout {
		t.Fatalf("reason missing: %v", evt.Attributes)
	}
	if evt.Attributes["buyer"] != testBuyer.Hex() {
		t.Fatalf("refunded event must name the buyer: %v", evt.Attributes)
	}
}

func TestNilDealEventsAreEmpty(t *testing.T) {
	evt := NewCreatedEvent(nil)
	if evt.Type != EventTypeDealCreated || len(evt.Attributes) != 0 {
		t.Fatalf("nil deal must yield an attribute-free event: %+v", evt)
	}
}
