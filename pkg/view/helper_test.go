package view_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewrender/pkg/view"
)

func TestHelperRegistry_GetMissing(t *testing.T) {
	registry := view.NewHelperRegistry()
	if _, err := registry.Get("nope"); !errors.Is(err, view.ErrHelperNotFound) {
		t.Fatalf("expected ErrHelperNotFound, got %v", err)
	}

	var nilRegistry *view.HelperRegistry
	if _, err := nilRegistry.Get("nope"); !errors.Is(err, view.ErrHelperNotFound) {
		t.Fatalf("expected ErrHelperNotFound from nil registry, got %v", err)
	}
}

func TestHelperRegistry_KeysAndClone(t *testing.T) {
	registry := view.NewHelperRegistry()
	registry.Register("b", view.HelperFunc(func() (string, error) { return "b", nil }))
	registry.Register("a", view.HelperFunc(func() (string, error) { return "a", nil }))

	cloned := registry.Clone()
	cloned.Register("c", view.HelperFunc(func() (string, error) { return "c", nil }))

	if diff := cmp.Diff([]string{"a", "b"}, registry.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, cloned.Keys()); diff != "" {
		t.Fatalf("cloned keys mismatch (-want +got):\n%s", diff)
	}
	if !cloned.Has("a") || registry.Has("c") {
		t.Fatal("registries not isolated")
	}
}

func TestAsData(t *testing.T) {
	if d, ok := view.AsData(nil); !ok || d == nil {
		t.Fatal("nil should convert to empty data")
	}
	if d, ok := view.AsData(map[string]any{"a": 1}); !ok || d["a"] != 1 {
		t.Fatal("map should convert")
	}
	if _, ok := view.AsData("nope"); ok {
		t.Fatal("string should not convert")
	}
}
