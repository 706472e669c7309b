package record

import "testing"

func TestToFromMinorUnits(t *testing.T) {
	if got := ToMinorUnits(19.99, "USD"); got != 1999 {
		t.Fatalf("expected 1999 cents, got %d", got)
	}
	if got := ToMinorUnits(500, "JPY"); got != 500 {
		t.Fatalf("expected 500 (zero-exponent currency), got %d", got)
	}
	if got := FromMinorUnits(1999, "USD"); got != 19.99 {
		t.Fatalf("expected 19.99, got %v", got)
	}
}

func TestConvertUnitKnownAndUnknownPairs(t *testing.T) {
	got := ConvertUnit(1, "kg", "g")
	if got != 1000 {
		t.Fatalf("expected 1000g, got %v", got)
	}
	// unknown pair falls back to factor 1, not an error
	got = ConvertUnit(5, "furlong", "smoot")
	if got != 5 {
		t.Fatalf("expected unknown pair to pass through unchanged, got %v", got)
	}
}

func TestParseDateAcceptsMultipleLayouts(t *testing.T) {
	for _, in := range []string{"2024-01-15", "2024-01-15T10:30:00Z", "2024/01/15"} {
		if _, err := ParseDate(in); err != nil {
			t.Errorf("ParseDate(%q) returned error: %v", in, err)
		}
	}
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Error("expected error for unrecognized date format")
	}
}
