package ledgerkit

import (
	"fmt"
	"testing"
)

func TestHaltError(t *testing.T) {
	err := NewHaltError(42, "block number overflow")
	if err.Height != 42 {
		t.Errorf("expected height 42, got %d", err.Height)
	}
	if err.Reason != "block number overflow" {
		t.Errorf("unexpected reason: %s", err.Reason)
	}

	expected := "HALT at height 42: block number overflow"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestIsHalt(t *testing.T) {
	haltErr := NewHaltError(10, "divergence")

	// Direct.
	h, ok := IsHalt(haltErr)
	if !ok {
		t.Fatal("expected IsHalt to return true")
	}
	if h.Height != 10 {
		t.Errorf("expected height 10, got %d", h.Height)
	}

	// Wrapped.
	wrapped := fmt.Errorf("wrapped: %w", haltErr)
	h2, ok2 := IsHalt(wrapped)
	if !ok2 {
		t.Fatal("expected IsHalt to unwrap wrapped error")
	}
	if h2.Height != 10 {
		t.Errorf("expected height 10, got %d", h2.Height)
	}

	// Non-halt error.
	_, ok3 := IsHalt(fmt.Errorf("just a regular error"))
	if ok3 {
		t.Fatal("expected IsHalt to return false for non-halt error")
	}

	// Nil.
	_, ok4 := IsHalt(nil)
	if ok4 {
		t.Fatal("expected IsHalt to return false for nil")
	}
}

func TestBlockNumberMismatchError(t *testing.T) {
	err := &BlockNumberMismatchError{Expected: 3, Got: 7}
	expected := "block number mismatch: expected 3, got 7"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}

	m, ok := IsBlockNumberMismatch(fmt.Errorf("execute: %w", err))
	if !ok {
		t.Fatal("expected IsBlockNumberMismatch to unwrap wrapped error")
	}
	if m.Expected != 3 || m.Got != 7 {
		t.Errorf("unexpected fields: %+v", m)
	}

	if _, ok := IsBlockNumberMismatch(NewHaltError(1, "x")); ok {
		t.Fatal("a halt is not a block number mismatch")
	}
	if _, ok := IsBlockNumberMismatch(nil); ok {
		t.Fatal("expected IsBlockNumberMismatch to return false for nil")
	}
}
