package record

import (
	"context"

	"github.com/dogmatiq/permitkv/acl"
	"github.com/dogmatiq/permitkv/internal/syncx"
	"github.com/dogmatiq/permitkv/kv"
	"github.com/dogmatiq/permitkv/marshaler"
	"github.com/dogmatiq/permitkv/principal"
)

// DefaultKeyspace is the name of the keyspace that holds records.
const DefaultKeyspace = "records"

// Store is an access-controlled collection of records.
//
// Mutations of the same key are serialized within a single Store. Writes are
// conditional on the revision read at the start of the operation, so a
// concurrent write from another process causes the operation to fail with a
// [kv.ConflictError] rather than overwrite.
type Store struct {
	Keyspace kv.Keyspace[string, Record]

	locks syncx.KeyedMutex[string]
}

// Open opens the record keyspace within s.
func Open(ctx context.Context, s kv.BinaryStore) (*Store, error) {
	ks, err := kv.NewMarshalingStore(
		s,
		marshaler.String,
		marshaler.NewCBOR[Record](),
	).Open(ctx, DefaultKeyspace)
	if err != nil {
		return nil, err
	}

	return &Store{Keyspace: ks}, nil
}

// Close closes the underlying keyspace.
func (s *Store) Close() error {
	return s.Keyspace.Close()
}

// Create adds a new record owned by the caller.
func (s *Store) Create(
	ctx context.Context,
	caller principal.Principal,
	key string,
	p Payload,
	seed Seed,
) (err error) {
	defer wrap(&err, "create", key)

	if err := authenticate(caller, key); err != nil {
		return err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	ok, err := s.Keyspace.Has(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyExists
	}

	rec := Record{
		Key:     key,
		Payload: p.clone(),
		ACL: acl.New(caller).WithAccess(acl.Access{
			PublicRead: seed.PublicRead,
			Readers:    seed.Readers,
		}),
	}

	if err := s.Keyspace.Set(ctx, key, rec, 0); err != nil {
		if kv.IsConflict(err) {
			return ErrAlreadyExists
		}
		return err
	}

	return nil
}

// Read returns the record with the given key.
//
// ok is false if there is no such record. Anonymous callers are rejected even
// if the record is publicly readable.
func (s *Store) Read(
	ctx context.Context,
	caller principal.Principal,
	key string,
) (_ View, ok bool, err error) {
	defer wrap(&err, "read", key)

	if err := authenticate(caller, key); err != nil {
		return View{}, false, err
	}

	rec, r, err := s.Keyspace.Get(ctx, key)
	if err != nil || r == 0 {
		return View{}, false, err
	}

	if !rec.ACL.IsReadable(caller) {
		return View{}, false, ErrForbidden
	}

	return viewOf(rec), true, nil
}

// UpdatePayload replaces the payload of an existing record. Only the owner may
// update a record.
func (s *Store) UpdatePayload(
	ctx context.Context,
	caller principal.Principal,
	key string,
	p Payload,
) (err error) {
	defer wrap(&err, "update payload of", key)

	return s.mutate(
		ctx,
		caller,
		key,
		func(rec *Record) {
			rec.Payload = p.clone()
		},
	)
}

// UpdateACL replaces the access rules of an existing record. The owner is
// retained. Only the owner may update a record.
func (s *Store) UpdateACL(
	ctx context.Context,
	caller principal.Principal,
	key string,
	x acl.Access,
) (err error) {
	defer wrap(&err, "update ACL of", key)

	return s.mutate(
		ctx,
		caller,
		key,
		func(rec *Record) {
			rec.ACL = rec.ACL.WithAccess(x)
		},
	)
}

// Delete removes an existing record. Only the owner may delete a record.
func (s *Store) Delete(
	ctx context.Context,
	caller principal.Principal,
	key string,
) (err error) {
	defer wrap(&err, "delete", key)

	return s.mutate(
		ctx,
		caller,
		key,
		func(rec *Record) {
			*rec = Record{}
		},
	)
}

// mutate loads the record with the given key, checks that the caller owns it,
// applies fn and writes the result back. A zero record is deleted.
func (s *Store) mutate(
	ctx context.Context,
	caller principal.Principal,
	key string,
	fn func(*Record),
) error {
	if err := authenticate(caller, key); err != nil {
		return err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	rec, r, err := s.Keyspace.Get(ctx, key)
	if err != nil {
		return err
	}

	if r == 0 {
		return ErrNotFound
	}

	if !rec.ACL.IsOwner(caller) {
		return ErrForbidden
	}

	fn(&rec)

	return s.Keyspace.Set(ctx, key, rec, r)
}

func authenticate(caller principal.Principal, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	if caller.IsAnonymous() {
		return ErrUnauthenticated
	}

	return nil
}

func wrap(err *error, op, key string) {
	if *err != nil {
		*err = &Error{op, key, *err}
	}
}
