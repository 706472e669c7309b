package dispatch

import "testing"

type fakeExtractor struct{ name string }

func TestRegistryRegisterResolve(t *testing.T) {
	r := NewRegistry[fakeExtractor]()
	r.Register("http", fakeExtractor{name: "http"})

	got, ok := r.Resolve("http")
	if !ok || got.name != "http" {
		t.Fatalf("expected http extractor, got %+v (%v)", got, ok)
	}

	if _, ok := r.Resolve("missing"); ok {
		t.Fatal("expected unregistered code to miss")
	}
}

func TestRegistryCodes(t *testing.T) {
	r := NewRegistry[fakeExtractor]()
	r.Register("a", fakeExtractor{})
	r.Register("b", fakeExtractor{})
	codes := r.Codes()
	if len(codes) != 2 {
		t.Fatalf("expected 2 codes, got %d", len(codes))
	}
}
