package xtelemetry_test

import (
	"strings"
	"testing"

	. "github.com/dogmatiq/permitkv/internal/x/xtelemetry"
)

func TestHandleID(t *testing.T) {
	a := HandleID()
	b := HandleID()

	if a == b {
		t.Fatalf("expected distinct handle IDs, got %q twice", a)
	}

	if !strings.HasPrefix(a, "#") {
		t.Fatalf("expected handle ID to begin with a counter, got %q", a)
	}
}
