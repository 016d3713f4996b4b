package escrow

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestParseAddress(t *testing.T) {
	want := newTestAddress(0xAB)
	for _, input := range []string{
		"abababababababababababababababababababab",
		"0xabababababababababababababababababababab",
		"  0xABABABABABABABABABABABABABABABABABABABAB  ",
	} {
		got, err := ParseAddress(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s", input, got)
		}
	}
	for _, input := range []string{"", "0x1234", "zzababababababababababababababababababab"} {
		if _, err := ParseAddress(input); err == nil {
			t.Fatalf("expected parse failure for %q", input)
		}
	}
}

func TestDealStatusStrings(t *testing.T) {
	cases := map[DealStatus]string{
		StatusNone:      "none",
		StatusCreated:   "created",
		StatusDeposited: "deposited",
		StatusReleased:  "released",
		StatusRefunded:  "refunded",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Fatalf("status %d: got %q want %q", status, got, want)
		}
		if !status.Valid() {
			t.Fatalf("status %q must be valid", want)
		}
	}
	if DealStatus(99).Valid() {
		t.Fatalf("out-of-range status must be invalid")
	}
	if StatusDeposited.Terminal() || !StatusReleased.Terminal() || !StatusRefunded.Terminal() {
		t.Fatalf("terminal predicate wrong")
	}
}

func TestDealCloneIsDeep(t *testing.T) {
	deal := &Deal{ID: 1, Amount: big.NewInt(100), Status: StatusCreated}
	clone := deal.Clone()
	clone.Amount.SetInt64(0)
	clone.Status = StatusReleased
	if deal.Amount.Cmp(big.NewInt(100)) != 0 || deal.Status != StatusCreated {
		t.Fatalf("clone mutation leaked into original")
	}
}

func TestDealJSONUsesHexAddresses(t *testing.T) {
	deal := &Deal{
		ID:     3,
		Buyer:  testBuyer,
		Amount: big.NewInt(7),
		Status: StatusCreated,
	}
	raw, err := json.Marshal(deal)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded := &Deal{}
	if err := json.Unmarshal(raw, decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Buyer != testBuyer || decoded.Amount.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("round trip lost fields: %+v", decoded)
	}
}

func TestSanitizeDealRejectsBadValues(t *testing.T) {
	if _, err := SanitizeDeal(nil); err == nil {
		t.Fatalf("nil deal must be rejected")
	}
	if _, err := SanitizeDeal(&Deal{Amount: big.NewInt(-1), Status: StatusCreated}); err == nil {
		t.Fatalf("negative amount must be rejected")
	}
	if _, err := SanitizeDeal(&Deal{Amount: big.NewInt(1), Status: DealStatus(42)}); err == nil {
		t.Fatalf("invalid status must be rejected")
	}
	sanitized, err := SanitizeDeal(&Deal{Status: StatusCreated})
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if sanitized.Amount == nil || sanitized.Amount.Sign() != 0 {
		t.Fatalf("nil amount must normalise to zero")
	}
}
