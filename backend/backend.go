// Package backend defines the homomorphic encryption capabilities a
// benchmark case consumes, and ships the implementations the CLI can
// select: a lattice-based BGV backend and an insecure plain reference.
package backend

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/weiihann/fhebench/catalog"
)

// ErrBackendFatal marks an unrecoverable backend failure: key generation
// was impossible or a ciphertext was decrypted with the wrong key.
var ErrBackendFatal = errors.New("backend failure")

// Config selects exactly one active cleartext width for a backend.
type Config interface {
	Width() catalog.Width
}

// ClientKey is secret material enabling encryption and decryption.
type ClientKey any

// ServerKey is public evaluation material for homomorphic operations.
type ServerKey any

// KeyPair holds the keys of a single benchmark case.
type KeyPair struct {
	Client ClientKey
	Server ServerKey
}

// Ciphertext is an encrypted cleartext of a fixed width.
type Ciphertext interface {
	Width() catalog.Width
}

// Evaluator applies homomorphic operators under an installed server key.
// It is the scoped replacement for a process-wide active key: whoever
// holds the Evaluator holds the key.
type Evaluator interface {
	Apply(op catalog.Operation, a, b Ciphertext) (Ciphertext, error)
}

// Backend is a homomorphic encryption library seen by the benchmark.
//
// Both shipped backends reduce results modulo 2^w, so decrypting
// Apply(op, Encrypt(a), Encrypt(b)) yields op.Apply(a, b, w).
type Backend interface {
	Name() string
	Configure(w catalog.Width) (Config, error)
	GenerateKeys(cfg Config) (KeyPair, error)
	Encrypt(v uint64, w catalog.Width, ck ClientKey) (Ciphertext, error)
	Install(sk ServerKey) (Evaluator, error)
	Decrypt(ct Ciphertext, ck ClientKey) (uint64, error)
}

// KnownBackends returns the list of supported backend names.
func KnownBackends() []string {
	return []string{"bgv", "plain"}
}

// New returns a fresh backend by name.
func New(name string) (Backend, error) {
	switch name {
	case "bgv":
		return NewBGV(), nil
	case "plain":
		return NewPlain(), nil
	default:
		return nil, &catalog.ConfigurationError{Value: name, What: "backend"}
	}
}

var keyIDs atomic.Uint64

// nextKeyID tags a key pair so ciphertexts can be matched to their keys.
func nextKeyID() uint64 {
	return keyIDs.Add(1)
}

func fatalf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrBackendFatal}, args...)...)
}

func checkWidth(cfg Config, w catalog.Width) error {
	if cfg.Width() != w {
		return fatalf("ciphertext width %s does not match key width %s",
			w, cfg.Width())
	}

	return nil
}
