package node

import (
	"errors"
	"testing"
)

func TestRegisterActivationValidation(t *testing.T) {
	if err := RegisterActivation("", func(x float64) float64 { return x }); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := RegisterActivation("nilfn", nil); err == nil {
		t.Fatal("expected error for nil function")
	}
}

func TestRegisterActivationDuplicate(t *testing.T) {
	err := RegisterActivation("sigmoid", func(x float64) float64 { return x })
	if !errors.Is(err, ErrActivationExists) {
		t.Fatalf("expected ErrActivationExists, got %v", err)
	}
}

func TestGetActivationNotFound(t *testing.T) {
	_, err := GetActivation("no-such-activation")
	if !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got %v", err)
	}
}

func TestListActivationsIncludesBuiltins(t *testing.T) {
	names := ListActivations()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}
	for _, want := range []string{"identity", "sigmoid", "tanh"} {
		if !seen[want] {
			t.Fatalf("builtin %s missing from %v", want, names)
		}
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("list not sorted: %v", names)
		}
	}
}
