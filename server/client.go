package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dogmatiq/permitkv/acl"
	"github.com/dogmatiq/permitkv/capability"
	"github.com/dogmatiq/permitkv/internal/codec"
	"github.com/dogmatiq/permitkv/record"
)

const (
	// dialTimeout is the maximum time to wait to connect to the socket.
	dialTimeout = 5 * time.Second

	// responseTimeout is how long the client waits for a response after
	// sending its request.
	responseTimeout = readTimeout + writeTimeout

	// maxResponseSize is the maximum size of a single encoded response.
	maxResponseSize = maxRequestSize
)

// Client calls a [Service] exposed by a [SocketServer].
//
// Each call opens a new connection.
type Client struct {
	SocketPath string
}

// Create adds a new record owned by the token's principal.
func (c *Client) Create(
	ctx context.Context,
	t *capability.Token,
	key string,
	p record.Payload,
	seed record.Seed,
) error {
	return c.call(
		ctx,
		t,
		&Request{
			Action:     ActionCreate,
			Key:        key,
			Version:    p.Version,
			Data:       p.Data,
			PublicRead: seed.PublicRead,
			Readers:    seed.Readers,
		},
		nil,
	)
}

// Read returns the record with the given key.
func (c *Client) Read(
	ctx context.Context,
	t *capability.Token,
	key string,
) (record.View, bool, error) {
	var res ReadResult

	if err := c.call(
		ctx,
		t,
		&Request{
			Action: ActionRead,
			Key:    key,
		},
		&res,
	); err != nil || !res.Found {
		return record.View{}, false, err
	}

	return record.View{
		Key: res.Key,
		Payload: record.Payload{
			Version: res.Version,
			Data:    res.Data,
		},
		ACL: acl.New(res.Owner).WithAccess(acl.Access{
			PublicRead: res.PublicRead,
			Readers:    res.Readers,
		}),
	}, true, nil
}

// UpdatePayload replaces the payload of an existing record.
func (c *Client) UpdatePayload(
	ctx context.Context,
	t *capability.Token,
	key string,
	p record.Payload,
) error {
	return c.call(
		ctx,
		t,
		&Request{
			Action:  ActionUpdatePayload,
			Key:     key,
			Version: p.Version,
			Data:    p.Data,
		},
		nil,
	)
}

// UpdateACL replaces the access rules of an existing record.
func (c *Client) UpdateACL(
	ctx context.Context,
	t *capability.Token,
	key string,
	x acl.Access,
) error {
	return c.call(
		ctx,
		t,
		&Request{
			Action:     ActionUpdateACL,
			Key:        key,
			PublicRead: x.PublicRead,
			Readers:    x.Readers,
		},
		nil,
	)
}

// Delete removes an existing record.
func (c *Client) Delete(
	ctx context.Context,
	t *capability.Token,
	key string,
) error {
	return c.call(
		ctx,
		t,
		&Request{
			Action: ActionDelete,
			Key:    key,
		},
		nil,
	)
}

// RevokePermit revokes one of the caller's own permits, by name.
func (c *Client) RevokePermit(
	ctx context.Context,
	t *capability.Token,
	name string,
) (bool, error) {
	var res RevokeResult

	err := c.call(
		ctx,
		t,
		&Request{
			Action: ActionRevokePermit,
			Permit: name,
		},
		&res,
	)

	return res.Revoked, err
}

func (c *Client) call(
	ctx context.Context,
	t *capability.Token,
	req *Request,
	result any,
) error {
	if t != nil {
		data, err := capability.Marshal(t)
		if err != nil {
			return err
		}
		req.Token = data
	}

	res, err := c.send(ctx, req)
	if err != nil {
		return fmt.Errorf("unable to call %q on %s: %w", req.Action, c.SocketPath, err)
	}

	if !res.OK {
		return &RemoteError{
			Action:  req.Action,
			Code:    res.Code,
			Message: res.Error,
		}
	}

	if result != nil && len(res.Data) != 0 {
		if err := codec.Unmarshal(res.Data, result); err != nil {
			return fmt.Errorf("unable to decode %q response: %w", req.Action, err)
		}
	}

	return nil
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	d := net.Dialer{Timeout: dialTimeout}

	conn, err := d.DialContext(ctx, "unix", c.SocketPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("unable to write request: %w", err)
	}

	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	if _, ok := ctx.Deadline(); !ok {
		conn.SetReadDeadline(time.Now().Add(responseTimeout))
	}

	var res Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&res); err != nil {
		return nil, fmt.Errorf("unable to read response: %w", err)
	}

	return &res, nil
}
