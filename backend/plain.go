package backend

import (
	"fmt"
	"math/rand"

	"github.com/weiihann/fhebench/catalog"
)

// Plain is an insecure reference backend. Ciphertexts are cleartexts
// XOR-ed with a per-key mask; the server key carries the same mask so the
// evaluator can unmask, compute and re-mask. It measures the overhead of
// the harness itself and lets tests run without lattice arithmetic.
type Plain struct{}

// NewPlain returns the plain reference backend.
func NewPlain() *Plain {
	return &Plain{}
}

type plainConfig struct {
	width catalog.Width
}

func (c plainConfig) Width() catalog.Width { return c.width }

type plainKey struct {
	id    uint64
	width catalog.Width
	mask  uint64
}

type plainCiphertext struct {
	owner uint64
	width catalog.Width
	value uint64
}

func (c *plainCiphertext) Width() catalog.Width { return c.width }

type plainEvaluator struct {
	key *plainKey
}

// Name implements Backend.
func (p *Plain) Name() string {
	return "plain"
}

// Configure implements Backend.
func (p *Plain) Configure(w catalog.Width) (Config, error) {
	if !w.Valid() {
		return nil, &catalog.ConfigurationError{Value: w.String(), What: "width"}
	}

	return plainConfig{width: w}, nil
}

// GenerateKeys implements Backend.
func (p *Plain) GenerateKeys(cfg Config) (KeyPair, error) {
	c, ok := cfg.(plainConfig)
	if !ok {
		return KeyPair{}, fatalf("plain: unexpected config %T", cfg)
	}

	key := &plainKey{
		id:    nextKeyID(),
		width: c.width,
		mask:  c.width.Mask(rand.Uint64()),
	}

	return KeyPair{Client: key, Server: key}, nil
}

// Encrypt implements Backend.
func (p *Plain) Encrypt(
	v uint64, w catalog.Width, ck ClientKey,
) (Ciphertext, error) {
	key, ok := ck.(*plainKey)
	if !ok {
		return nil, fatalf("plain: unexpected client key %T", ck)
	}

	if err := w.Check(v); err != nil {
		return nil, fmt.Errorf("plain encrypt: %w", err)
	}

	if key.width != w {
		return nil, fatalf("plain: key width %s, cleartext width %s",
			key.width, w)
	}

	return &plainCiphertext{owner: key.id, width: w, value: v ^ key.mask}, nil
}

// Install implements Backend.
func (p *Plain) Install(sk ServerKey) (Evaluator, error) {
	key, ok := sk.(*plainKey)
	if !ok {
		return nil, fatalf("plain: unexpected server key %T", sk)
	}

	return &plainEvaluator{key: key}, nil
}

// Apply implements Evaluator.
func (e *plainEvaluator) Apply(
	op catalog.Operation, a, b Ciphertext,
) (Ciphertext, error) {
	ca, err := e.operand(a)
	if err != nil {
		return nil, err
	}

	cb, err := e.operand(b)
	if err != nil {
		return nil, err
	}

	if !op.Valid() {
		return nil, &catalog.ConfigurationError{Value: op.String(), What: "operation"}
	}

	w := e.key.width
	out := op.Apply(ca.value^e.key.mask, cb.value^e.key.mask, w)

	return &plainCiphertext{owner: e.key.id, width: w, value: out ^ e.key.mask}, nil
}

func (e *plainEvaluator) operand(ct Ciphertext) (*plainCiphertext, error) {
	c, ok := ct.(*plainCiphertext)
	if !ok {
		return nil, fatalf("plain: unexpected ciphertext %T", ct)
	}

	if c.owner != e.key.id || c.width != e.key.width {
		return nil, fatalf("plain: ciphertext was not encrypted under the installed key")
	}

	return c, nil
}

// Decrypt implements Backend.
func (p *Plain) Decrypt(ct Ciphertext, ck ClientKey) (uint64, error) {
	key, ok := ck.(*plainKey)
	if !ok {
		return 0, fatalf("plain: unexpected client key %T", ck)
	}

	c, ok := ct.(*plainCiphertext)
	if !ok {
		return 0, fatalf("plain: unexpected ciphertext %T", ct)
	}

	if c.owner != key.id {
		return 0, fatalf("plain: ciphertext/key mismatch")
	}

	return c.value ^ key.mask, nil
}
