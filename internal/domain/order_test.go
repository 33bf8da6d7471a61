package domain

import "testing"

func TestTrackingParamsFromMap(t *testing.T) {
	tp := TrackingParamsFromMap(map[string]any{
		"utm_source":   "fb",
		"utm_campaign": "c1",
		"fbclid":       "abc",
		"utm_medium":   42,
		"unrelated":    "x",
	})
	if tp.UtmSource != "fb" || tp.UtmCampaign != "c1" || tp.Fbclid != "abc" {
		t.Errorf("tp = %+v", tp)
	}
	if tp.UtmMedium != "" {
		t.Errorf("non-string value kept: %q", tp.UtmMedium)
	}
	if tp.Src != "fb" {
		t.Errorf("Src = %q, want backfill from utm_source", tp.Src)
	}

	explicit := TrackingParamsFromMap(map[string]any{"src": "direct", "utm_source": "fb"})
	if explicit.Src != "direct" {
		t.Errorf("Src = %q, explicit value overridden", explicit.Src)
	}
}

func TestTrackingParamsToMapStripsEmpty(t *testing.T) {
	tp := TrackingParams{UtmSource: "fb", Src: "fb"}
	m := tp.ToMap()
	if len(m) != 2 {
		t.Errorf("ToMap = %v, want only non-empty entries", m)
	}
	if _, ok := m["utm_campaign"]; ok {
		t.Error("empty utm_campaign present in map")
	}
}

func TestIsPaid(t *testing.T) {
	for _, s := range []string{"paid", "PAID", "Paid", "approved", "APPROVED", "Approved", "transaction.paid", "Transaction.Paid"} {
		if !IsPaid(s) {
			t.Errorf("IsPaid(%q) = false", s)
		}
	}
	for _, s := range []string{"pending", "refunded", "cancelled", "chargeback_requested", ""} {
		if IsPaid(s) {
			t.Errorf("IsPaid(%q) = true", s)
		}
	}
}
