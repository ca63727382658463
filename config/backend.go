package config

import (
	"fmt"
	"strings"
)

// Backend identifies a storage driver.
//
// It implements [github.com/spf13/pflag.Value] so that it may be overridden on
// the command line.
type Backend string

// Supported storage backends.
const (
	Memory   Backend = "memory"
	SQLite   Backend = "sqlite"
	Postgres Backend = "postgres"
	DynamoDB Backend = "dynamodb"
	S3       Backend = "s3"
)

// Backends is the list of all supported backends.
var Backends = []Backend{Memory, SQLite, Postgres, DynamoDB, S3}

func (b *Backend) String() string {
	return string(*b)
}

// Set parses s as a backend name.
func (b *Backend) Set(s string) error {
	v := Backend(strings.ToLower(s))
	if err := v.validate(); err != nil {
		return err
	}
	*b = v
	return nil
}

// Type returns the name of the flag type.
func (b *Backend) Type() string {
	return "backend"
}

func (b Backend) validate() error {
	for _, x := range Backends {
		if b == x {
			return nil
		}
	}
	return fmt.Errorf("unsupported storage backend %q", string(b))
}
