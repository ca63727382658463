package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dogmatiq/permitkv/acl"
	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/internal/codec"
	"github.com/dogmatiq/permitkv/record"
	"github.com/sirupsen/logrus"
)

// ActionFunc handles a decoded request for a specific action.
//
// A non-nil result is encoded as the response's data.
type ActionFunc func(ctx context.Context, t *capability.Token, req *Request) (any, error)

// SocketServer serves the request/response protocol on a Unix socket. Each
// connection carries exactly one request and one response.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     logrus.FieldLogger

	active sync.WaitGroup
}

const (
	// readTimeout is how long the server waits for a client to send its
	// request.
	readTimeout = 30 * time.Second

	// writeTimeout is how long the server waits for a response to be written.
	writeTimeout = 10 * time.Second

	// maxRequestSize is the maximum size of a single encoded request.
	maxRequestSize = 1024 * 1024

	// minAcceptDelay and maxAcceptDelay bound the delay between attempts to
	// accept a connection after a failure, such as running out of file
	// descriptors.
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = 1 * time.Second
)

// NewSocketServer returns a server that listens on socketPath.
func NewSocketServer(socketPath string, logger logrus.FieldLogger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handlers:   map[string]ActionFunc{},
		logger:     logger.WithField("socket", socketPath),
	}
}

// NewServiceSocketServer returns a server that exposes svc on socketPath.
func NewServiceSocketServer(
	socketPath string,
	svc *Service,
	logger logrus.FieldLogger,
) *SocketServer {
	s := NewSocketServer(socketPath, logger)

	s.Handle(ActionCreate, func(ctx context.Context, t *capability.Token, req *Request) (any, error) {
		return nil, svc.Create(
			ctx, t, req.Key,
			record.Payload{Version: req.Version, Data: req.Data},
			record.Seed{PublicRead: req.PublicRead, Readers: req.Readers},
		)
	})

	s.Handle(ActionRead, func(ctx context.Context, t *capability.Token, req *Request) (any, error) {
		v, ok, err := svc.Read(ctx, t, req.Key)
		if err != nil || !ok {
			return ReadResult{}, err
		}

		return ReadResult{
			Found:      true,
			Key:        v.Key,
			Version:    v.Payload.Version,
			Data:       v.Payload.Data,
			Owner:      v.ACL.Owner(),
			PublicRead: v.ACL.PublicRead(),
			Readers:    v.ACL.Readers(),
		}, nil
	})

	s.Handle(ActionUpdatePayload, func(ctx context.Context, t *capability.Token, req *Request) (any, error) {
		return nil, svc.UpdatePayload(
			ctx, t, req.Key,
			record.Payload{Version: req.Version, Data: req.Data},
		)
	})

	s.Handle(ActionUpdateACL, func(ctx context.Context, t *capability.Token, req *Request) (any, error) {
		return nil, svc.UpdateACL(
			ctx, t, req.Key,
			acl.Access{PublicRead: req.PublicRead, Readers: req.Readers},
		)
	})

	s.Handle(ActionDelete, func(ctx context.Context, t *capability.Token, req *Request) (any, error) {
		return nil, svc.Delete(ctx, t, req.Key)
	})

	s.Handle(ActionRevokePermit, func(ctx context.Context, t *capability.Token, req *Request) (any, error) {
		ok, err := svc.RevokePermit(ctx, t, req.Permit)
		return RevokeResult{Revoked: ok}, err
	})

	return s
}

// Handle registers a handler for the given action. It panics if the action is
// already registered. It must not be called after [SocketServer.Serve].
func (s *SocketServer) Handle(action string, h ActionFunc) {
	if _, ok := s.handlers[action]; ok {
		panic(fmt.Sprintf("duplicate handler for action %q", action))
	}
	s.handlers[action] = h
}

// Serve accepts connections until ctx is canceled, then waits for in-flight
// requests to complete.
//
// Any stale socket file is removed before listening, and the socket file is
// removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("unable to create socket directory: %w", err)
	}

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to remove stale socket: %w", err)
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("unable to listen: %w", err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening")

	var delay time.Duration

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}

			delay = acceptBackoff(delay)
			s.logger.
				WithError(err).
				WithField("retry_in", delay).
				Error("unable to accept connection")

			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}

			continue
		}

		delay = 0
		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handle(ctx, conn)
		}()
	}

	s.active.Wait()
	s.logger.Info("socket server stopped")

	return nil
}

// acceptBackoff returns the delay before retrying a failed accept, given the
// previous delay.
func acceptBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	return min(prev*2, maxAcceptDelay)
}

func (s *SocketServer) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var req Request
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeError(conn, fmt.Errorf("%w: %s", ErrInvalidRequest, err))
		return
	}

	logger := s.logger.WithField("action", req.Action)

	h, ok := s.handlers[req.Action]
	if !ok {
		s.writeError(conn, fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, req.Action))
		return
	}

	var t *capability.Token
	if len(req.Token) != 0 {
		var err error
		t, err = capability.Unmarshal(req.Token)
		if err != nil {
			s.writeError(conn, fmt.Errorf("%w: %s", ErrInvalidRequest, err))
			return
		}
	}

	result, err := h(ctx, t, &req)
	if err != nil {
		logger.WithError(err).Debug("action failed")
		s.writeError(conn, err)
		return
	}

	logger.Debug("action succeeded")
	s.writeSuccess(conn, result)
}

func (s *SocketServer) writeError(conn net.Conn, err error) {
	s.write(conn, Response{
		Error: err.Error(),
		Code:  CodeOf(err),
	})
}

func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	res := Response{OK: true}

	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Errorf("unable to encode response: %w", err))
			return
		}
		res.Data = data
	}

	s.write(conn, res)
}

func (s *SocketServer) write(conn net.Conn, res Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	if err := codec.NewEncoder(conn).Encode(res); err != nil {
		s.logger.WithError(err).Debug("unable to write response")
	}
}
