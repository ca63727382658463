package server_test

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dogmatiq/permitkv/acl"
	"github.com/dogmatiq/permitkv/auth"
	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/format"
	"github.com/dogmatiq/permitkv/internal/codec"
	"github.com/dogmatiq/permitkv/principal"
	"github.com/dogmatiq/permitkv/record"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	. "github.com/dogmatiq/permitkv/server"
)

// serve starts a socket server for f's service and returns a client for it.
func serve(t *testing.T, f *fixture) *Client {
	t.Helper()

	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	// Unix socket paths are limited in length, so avoid t.TempDir(), which
	// includes the test name.
	dir, err := os.MkdirTemp("", "permitkv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	path := filepath.Join(dir, "s.sock")
	server := NewServiceSocketServer(path, f.Service, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Serve(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Error(err)
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
			break
		}

		if time.Now().After(deadline) {
			t.Fatalf("server did not start listening: %v", err)
		}

		time.Sleep(10 * time.Millisecond)
	}

	return &Client{SocketPath: path}
}

// roundTrip sends req directly over the socket and returns the raw response.
func roundTrip(t *testing.T, client *Client, req Request) Response {
	t.Helper()

	conn, err := net.Dial("unix", client.SocketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(req); err != nil {
		t.Fatal(err)
	}

	var res Response
	if err := codec.NewDecoder(io.LimitReader(conn, 1024)).Decode(&res); err != nil {
		t.Fatal(err)
	}

	return res
}

func TestSocketServer(t *testing.T) {
	t.Parallel()

	t.Run("it round-trips a record through the client", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		client := serve(t, f)

		tok, owner := f.Token(t, "<permit>")
		readerToken, reader := f.Token(t, "<permit>")

		if err := client.Create(
			t.Context(),
			tok,
			"<key>",
			format.EncodeUint32(42),
			record.Seed{Readers: []principal.Principal{reader}},
		); err != nil {
			t.Fatal(err)
		}

		v, ok, err := client.Read(t.Context(), readerToken, "<key>")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected the record to exist")
		}
		if v.Key != "<key>" {
			t.Fatalf("unexpected key: %q", v.Key)
		}
		if v.ACL.Owner() != owner {
			t.Fatalf("unexpected owner: got %q, want %q", v.ACL.Owner(), owner)
		}
		if !v.ACL.IsReadable(reader) {
			t.Fatal("expected the reader to be permitted")
		}

		n, err := format.DecodeUint32(v.Payload)
		if err != nil {
			t.Fatal(err)
		}
		if n != 42 {
			t.Fatalf("unexpected value: got %d, want 42", n)
		}

		if err := client.UpdatePayload(t.Context(), tok, "<key>", format.EncodeUint32(43)); err != nil {
			t.Fatal(err)
		}

		if err := client.UpdateACL(t.Context(), tok, "<key>", acl.Access{}); err != nil {
			t.Fatal(err)
		}

		_, _, err = client.Read(t.Context(), readerToken, "<key>")
		expectErr(t, err, record.ErrForbidden)

		if err := client.Delete(t.Context(), tok, "<key>"); err != nil {
			t.Fatal(err)
		}

		_, ok, err = client.Read(t.Context(), tok, "<key>")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("did not expect the record to exist")
		}
	})

	t.Run("it maps error codes to sentinel errors", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		client := serve(t, f)
		tok, _ := f.Token(t, "<permit>")

		if err := client.Create(t.Context(), tok, "<key>", format.EncodeUint32(1), record.Seed{}); err != nil {
			t.Fatal(err)
		}

		err := client.Create(t.Context(), tok, "<key>", format.EncodeUint32(1), record.Seed{})
		expectErr(t, err, record.ErrAlreadyExists)

		var rerr *RemoteError
		if !errors.As(err, &rerr) {
			t.Fatalf("expected *RemoteError, got %T", err)
		}
		expectCode(t, rerr.Code, CodeAlreadyExists)
		if rerr.Action != ActionCreate {
			t.Fatalf("unexpected action: %q", rerr.Action)
		}

		err = client.UpdatePayload(t.Context(), tok, "<missing>", format.EncodeUint32(1))
		expectErr(t, err, record.ErrNotFound)

		_, _, err = client.Read(t.Context(), nil, "<key>")
		expectErr(t, err, record.ErrUnauthenticated)

		untrusted := *tok
		untrusted.Permit.Issuers = nil
		_, _, err = client.Read(t.Context(), &untrusted, "<key>")
		expectErr(t, err, auth.ErrNoIssuersDeclared)
	})

	t.Run("it reports the same sentinel errors as the service", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		client := serve(t, f)
		tok, _ := f.Token(t, "<permit>")

		local := f.Service.Create(t.Context(), tok, "", format.EncodeUint32(1), record.Seed{})
		remote := client.Create(t.Context(), tok, "", format.EncodeUint32(1), record.Seed{})

		expectErr(t, local, record.ErrInvalidKey)
		expectErr(t, remote, record.ErrInvalidKey)

		if errors.Is(remote, ErrInvalidRequest) {
			t.Fatal("did not expect an invalid key to be reported as an invalid request")
		}
	})

	t.Run("it revokes permits", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		client := serve(t, f)
		tok, _ := f.Token(t, "<permit>")

		ok, err := client.RevokePermit(t.Context(), tok, "<permit>")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected the permit to be revoked")
		}

		_, err = client.RevokePermit(t.Context(), tok, "<permit>")
		expectErr(t, err, auth.ErrVerificationFailed)
	})

	t.Run("it rejects unknown actions", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		client := serve(t, f)

		res := roundTrip(t, client, Request{Action: "<unknown>"})

		if res.OK {
			t.Fatal("expected the request to fail")
		}
		expectCode(t, res.Code, CodeInvalidRequest)
	})

	t.Run("it rejects malformed tokens", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		client := serve(t, f)

		res := roundTrip(t, client, Request{
			Action: ActionRead,
			Token:  []byte{0xff},
			Key:    "<key>",
		})

		if res.OK {
			t.Fatal("expected the request to fail")
		}
		expectCode(t, res.Code, CodeInvalidRequest)
	})
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		Err  error
		Want Code
	}{
		{io.ErrUnexpectedEOF, CodeInternal},
		{format.ErrUnknownFormat, CodeUnknownFormat},
		{auth.VerificationError{Reason: capability.ErrExpired}, CodeVerificationFailed},
		{record.ErrInvalidKey, CodeInvalidKey},
		{ErrInvalidRequest, CodeInvalidRequest},
	}

	for _, c := range cases {
		expectCode(t, CodeOf(c.Err), c.Want)
	}
}

func TestRemoteError(t *testing.T) {
	t.Parallel()

	codes := []Code{
		CodeUnauthenticated,
		CodeNoIssuersDeclared,
		CodeUntrustedIssuer,
		CodeVerificationFailed,
		CodeForbidden,
		CodeNotFound,
		CodeAlreadyExists,
		CodeUnknownFormat,
		CodeInvalidKey,
		CodeInvalidRequest,
	}

	for _, code := range codes {
		err := &RemoteError{Action: ActionCreate, Code: code}

		if got := CodeOf(err); got != code {
			t.Fatalf("remote error with code %q maps back to %q", code, got)
		}
	}

	if got := CodeOf(&RemoteError{Code: CodeInternal}); got != CodeInternal {
		t.Fatalf("unexpected code: %q", got)
	}
}
