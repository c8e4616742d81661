package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDispatch,
				Kind:   KindArityMismatch,
				Symbol: "run",
				Detail: "expected 2 argument(s), got 3",
			},
			contains: []string{"[dispatch]", "arity_mismatch", "run", "expected 2"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseMemory,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[memory]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRuntime,
				Kind:   KindInstantiation,
				Detail: "instantiate module",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[runtime]", "instantiation", "instantiate module", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := InvalidHandle(7)

	if !errors.Is(err, &Error{Phase: PhaseTable, Kind: KindInvalidHandle}) {
		t.Error("expected match on same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseTable, Kind: KindDoubleRelease}) {
		t.Error("expected no match on different kind")
	}
	if errors.Is(err, &Error{Phase: PhaseMemory, Kind: KindInvalidHandle}) {
		t.Error("expected no match on different phase")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("wazero failure")
	err := New(PhaseHost, KindRegistration).
		Symbol("env#log").
		Detail("bad signature with %d results", 2).
		Value(2).
		Cause(cause).
		Build()

	if err.Phase != PhaseHost || err.Kind != KindRegistration {
		t.Fatalf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Symbol != "env#log" {
		t.Errorf("unexpected symbol: %q", err.Symbol)
	}
	if err.Detail != "bad signature with 2 results" {
		t.Errorf("unexpected detail: %q", err.Detail)
	}
	if err.Unwrap() != cause {
		t.Error("cause not preserved")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{"InvalidHandle", InvalidHandle(42), []string{"invalid_handle", "42"}},
		{"DoubleRelease", DoubleRelease(3), []string{"double_release", "3"}},
		{"OutOfBounds", OutOfBounds(65530, 10, 65536), []string{"out_of_bounds", "65530", "10", "65536"}},
		{"InvalidUTF8", InvalidUTF8(16, []byte{0xff, 0xfe}), []string{"invalid_utf8", "fffe"}},
		{"ArityMismatch", ArityMismatch("add", 2, 1), []string{"arity_mismatch", "add", "2", "1"}},
		{"ReentrantCall", ReentrantCall("run"), []string{"reentrant_call", "run"}},
		{"NotFound", NotFound(PhaseDispatch, "export", "missing"), []string{"not_found", "export", "missing"}},
		{"Closed", Closed(PhaseTable, "handle table"), []string{"closed", "handle table"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("%s message %q does not contain %q", tt.name, msg, s)
				}
			}
		})
	}
}

func TestMissingImportsError(t *testing.T) {
	err := NewMissingImportsError([]string{
		"env#object_new",
		"env#object_delete",
		"gfx#draw",
	})

	msg := err.Error()
	for _, s := range []string{"missing 3 host function(s)", "env", "object_new", "object_delete", "gfx", "draw"} {
		if !strings.Contains(msg, s) {
			t.Errorf("message %q does not contain %q", msg, s)
		}
	}

	if !errors.Is(err, &MissingImportsError{}) {
		t.Error("expected Is to match MissingImportsError type")
	}
}

func TestMissingImportsError_Empty(t *testing.T) {
	err := &MissingImportsError{}
	if !strings.Contains(err.Error(), "no imports specified") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
