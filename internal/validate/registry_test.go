package validate

import (
	"context"
	"fmt"
	"testing"
)

type stubRule struct {
	id     string
	status Status
	err    error
}

func (r *stubRule) ID() string          { return r.id }
func (r *stubRule) Title() string       { return "Stub " + r.id }
func (r *stubRule) Description() string { return "A test rule." }

func (r *stubRule) Evaluate(ctx context.Context, target Target) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	return NewResult(target, r.id, r.status, ""), nil
}

// withRules swaps the global registry for the duration of a test.
func withRules(t *testing.T, rules ...Rule) {
	t.Helper()
	mu.Lock()
	saved := registry
	registry = make(map[string]Rule)
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		registry = saved
		mu.Unlock()
	})
	for _, r := range rules {
		Register(r)
	}
}

func TestRegistry_ListSortsByID(t *testing.T) {
	withRules(t,
		&stubRule{id: "zeta", status: StatusPass},
		&stubRule{id: "alpha", status: StatusPass},
		&stubRule{id: "mid", status: StatusPass},
	)

	list := List()
	if len(list) != 3 {
		t.Fatalf("List returned %d rules, want 3", len(list))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if got := list[i].ID(); got != want {
			t.Fatalf("List[%d] = %s, want %s", i, got, want)
		}
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	withRules(t, &stubRule{id: "dup", status: StatusPass})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	Register(&stubRule{id: "dup", status: StatusPass})
}

func TestResolve(t *testing.T) {
	withRules(t,
		&stubRule{id: "a", status: StatusPass},
		&stubRule{id: "b", status: StatusPass},
	)

	tests := []struct {
		name     string
		selector string
		wantIDs  []string
		wantErr  bool
	}{
		{"empty selects all", "", []string{"a", "b"}, false},
		{"single", "b", []string{"b"}, false},
		{"list with spaces", "b, a", []string{"b", "a"}, false},
		{"unknown", "nope", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := Resolve(tt.selector)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if len(rules) != len(tt.wantIDs) {
				t.Fatalf("got %d rules, want %d", len(rules), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got := rules[i].ID(); got != want {
					t.Fatalf("rules[%d] = %s, want %s", i, got, want)
				}
			}
		})
	}
}

var errBoom = fmt.Errorf("boom")
