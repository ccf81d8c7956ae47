package sdk

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestSentinelErrors verifies that all sentinel errors are defined correctly.
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "ErrToolNotFound",
			err:  ErrToolNotFound,
			want: "tool not found",
		},
		{
			name: "ErrBehaviorNotFound",
			err:  ErrBehaviorNotFound,
			want: "behavior not found",
		},
		{
			name: "ErrInvalidConfig",
			err:  ErrInvalidConfig,
			want: "invalid configuration",
		},
		{
			name: "ErrBudgetExceeded",
			err:  ErrBudgetExceeded,
			want: "call budget exceeded",
		},
		{
			name: "ErrEmptyRun",
			err:  ErrEmptyRun,
			want: "no samples in any category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("got %q, want %q", tt.err.Error(), tt.want)
			}
		})
	}
}

// TestErrorFormatting verifies the Error() output for the structured type.
func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name    string
		err     *Error
		wantSub []string
	}{
		{
			name: "with underlying error",
			err: &Error{
				Op:   "callexpr.Parse",
				Kind: KindParse,
				Err:  errors.New("unbalanced parenthesis"),
			},
			wantSub: []string{"callexpr.Parse", "parse", "unbalanced parenthesis"},
		},
		{
			name: "without underlying error",
			err: &Error{
				Op:   "Episode.Apply",
				Kind: KindSandbox,
			},
			wantSub: []string{"Episode.Apply", "sandbox"},
		},
		{
			name: "with context",
			err: &Error{
				Op:   "Runner.Evaluate",
				Kind: KindInternal,
				Err:  errors.New("boom"),
				Context: map[string]any{
					"sample_id": "normal-001",
				},
			},
			wantSub: []string{"Runner.Evaluate", "boom", "sample_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, sub := range tt.wantSub {
				if !strings.Contains(msg, sub) {
					t.Errorf("message %q missing %q", msg, sub)
				}
			}
		})
	}
}

// TestErrorUnwrap verifies errors.Is sees through the structured wrapper.
func TestErrorUnwrap(t *testing.T) {
	wrapped := NewSandboxError("Episode.Apply", ErrBehaviorNotFound)

	if !errors.Is(wrapped, ErrBehaviorNotFound) {
		t.Error("errors.Is failed to match the wrapped sentinel")
	}

	chained := fmt.Errorf("replay failed: %w", wrapped)
	if !errors.Is(chained, ErrBehaviorNotFound) {
		t.Error("errors.Is failed to match through a second wrap")
	}

	var structured *Error
	if !errors.As(chained, &structured) {
		t.Fatal("errors.As failed to extract *Error")
	}
	if structured.Kind != KindSandbox {
		t.Errorf("got kind %q, want %q", structured.Kind, KindSandbox)
	}
}

// TestErrorIsByKind verifies kind-based matching between structured errors.
func TestErrorIsByKind(t *testing.T) {
	err := NewParseError("callexpr.Parse", errors.New("bad token"))

	if !errors.Is(err, &Error{Kind: KindParse}) {
		t.Error("kind-only target should match")
	}
	if errors.Is(err, &Error{Kind: KindMatch}) {
		t.Error("different kind should not match")
	}
	if !errors.Is(err, &Error{Op: "callexpr.Parse", Kind: KindParse}) {
		t.Error("op+kind target should match")
	}
	if errors.Is(err, &Error{Op: "other.Op", Kind: KindParse}) {
		t.Error("different op should not match")
	}
}

// TestWithContext verifies context is copied, not shared.
func TestWithContext(t *testing.T) {
	base := NewMatchError("Matcher.Match", errors.New("no alternative matched"))
	derived := base.WithContext(map[string]any{"sample_id": "s1"})

	if base.Context != nil {
		t.Error("WithContext mutated the receiver")
	}
	if derived.Context["sample_id"] != "s1" {
		t.Error("derived error missing context entry")
	}
}
