package s3x_test

import (
	"io"
	"testing"

	. "github.com/dogmatiq/permitkv/driver/aws/internal/s3x"
)

func TestReadSeeker(t *testing.T) {
	t.Parallel()

	r := NewReadSeeker([]byte("<value>"))

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "<value>" {
		t.Fatalf("unexpected data: got %q, want %q", data, "<value>")
	}

	if _, err := r.Seek(1, io.SeekStart); err != nil {
		t.Fatal(err)
	}

	data, err = io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "value>" {
		t.Fatalf("unexpected data after seek: got %q, want %q", data, "value>")
	}

	if _, err := r.Seek(-10, io.SeekEnd); err == nil {
		t.Fatal("expected an error when seeking to a negative offset")
	}
}
