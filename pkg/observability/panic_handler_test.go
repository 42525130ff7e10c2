package observability

import (
	"bytes"
	"strings"
	"testing"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	func() {
		defer RecoverPanic(logger, "warmer run")
		panic("kaboom")
	}()

	out := buf.String()
	if !strings.Contains(out, "PANIC recovered") {
		t.Errorf("Expected panic to be logged, got %s", out)
	}
	if !strings.Contains(out, "kaboom") || !strings.Contains(out, "warmer run") {
		t.Errorf("Expected panic value and context in log, got %s", out)
	}
}

func TestMustRecover(t *testing.T) {
	if err := MustRecover(nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}

	err := func() (err error) {
		defer func() {
			if perr := MustRecover(recover()); perr != nil {
				err = perr
			}
		}()
		panic("bad input")
	}()
	if err == nil || err.Error() != "panic: bad input" {
		t.Errorf("Expected converted panic error, got %v", err)
	}
}
