package expr

import "testing"

func TestScriptCacheEvictsOldestBulk(t *testing.T) {
	c := newScriptCache(10, 0.2)
	for i := 0; i < 10; i++ {
		expr := string(rune('a'+i)) + " + 1"
		if _, err := c.compile(expr); err != nil {
			t.Fatalf("compile failed: %v", err)
		}
	}
	if c.size() != 10 {
		t.Fatalf("expected cache full at 10, got %d", c.size())
	}

	// One more insert should trigger a bulk eviction of ceil(10*0.2)=2
	// entries, not a single oldest-entry eviction.
	if _, err := c.compile("z + 1"); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if c.size() != 9 {
		t.Fatalf("expected size 9 after bulk eviction of 2 from a full 10-entry cache plus 1 insert, got %d", c.size())
	}
}

func TestScriptCacheHitReturnsSameProgram(t *testing.T) {
	c := newScriptCache(10, 0.2)
	p1, err := c.compile("a + 1")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	p2, err := c.compile("a + 1")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if p1 != p2 {
		t.Fatal("expected cache hit to return the same compiled program")
	}
}
