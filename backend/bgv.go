package backend

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/heint"

	"github.com/weiihann/fhebench/catalog"
)

const (
	// BGVPlaintextModulus is the prime plaintext modulus T, T = 7*2^20 + 1.
	BGVPlaintextModulus uint64 = 7340033

	// bgvDigitBits is the radix of the coefficient encoding.
	bgvDigitBits = 8
)

// BGVParameters are the default BGV parameters: N=2^13 and
// log(QP)=163, below the 128-bit security bound for that ring degree.
var BGVParameters = heint.ParametersLiteral{
	LogN:             13,
	LogQ:             []int{54, 54},
	LogP:             []int{55},
	PlaintextModulus: BGVPlaintextModulus,
}

// BGV evaluates integer arithmetic with lattigo's BGV scheme.
//
// A w-bit cleartext is encoded as the polynomial whose coefficients are
// its little-endian bytes, so addition and subtraction act per
// coefficient and multiplication is a polynomial product. After
// decryption the coefficients are centred modulo T and recombined as
// sum(c_k * 256^k) mod 2^w. The largest product coefficient is
// 8*255^2, well below T/2, so every width wraps exactly like native
// unsigned arithmetic.
type BGV struct {
	literal heint.ParametersLiteral
}

// NewBGV returns a BGV backend using BGVParameters.
func NewBGV() *BGV {
	return &BGV{literal: BGVParameters}
}

type bgvConfig struct {
	width  catalog.Width
	params heint.Parameters
}

func (c *bgvConfig) Width() catalog.Width { return c.width }

type bgvClientKey struct {
	id        uint64
	cfg       *bgvConfig
	encoder   *heint.Encoder
	encryptor *rlwe.Encryptor
	decryptor *rlwe.Decryptor
}

type bgvServerKey struct {
	id  uint64
	cfg *bgvConfig
	evk *rlwe.MemEvaluationKeySet
}

type bgvCiphertext struct {
	owner uint64
	width catalog.Width
	ct    *rlwe.Ciphertext
}

func (c *bgvCiphertext) Width() catalog.Width { return c.width }

type bgvEvaluator struct {
	key  *bgvServerKey
	eval *heint.Evaluator
}

// Name implements Backend.
func (b *BGV) Name() string {
	return "bgv"
}

// Configure implements Backend.
func (b *BGV) Configure(w catalog.Width) (Config, error) {
	if !w.Valid() {
		return nil, &catalog.ConfigurationError{Value: w.String(), What: "width"}
	}

	params, err := heint.NewParametersFromLiteral(b.literal)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrConfiguration, err)
	}

	return &bgvConfig{width: w, params: params}, nil
}

// GenerateKeys implements Backend.
func (b *BGV) GenerateKeys(cfg Config) (KeyPair, error) {
	c, ok := cfg.(*bgvConfig)
	if !ok {
		return KeyPair{}, fatalf("bgv: unexpected config %T", cfg)
	}

	kgen := rlwe.NewKeyGenerator(c.params)
	sk, pk := kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(sk)

	id := nextKeyID()

	client := &bgvClientKey{
		id:        id,
		cfg:       c,
		encoder:   heint.NewEncoder(c.params),
		encryptor: rlwe.NewEncryptor(c.params, pk),
		decryptor: rlwe.NewDecryptor(c.params, sk),
	}

	server := &bgvServerKey{
		id:  id,
		cfg: c,
		evk: rlwe.NewMemEvaluationKeySet(rlk),
	}

	return KeyPair{Client: client, Server: server}, nil
}

// Encrypt implements Backend.
func (b *BGV) Encrypt(
	v uint64, w catalog.Width, ck ClientKey,
) (Ciphertext, error) {
	key, ok := ck.(*bgvClientKey)
	if !ok {
		return nil, fatalf("bgv: unexpected client key %T", ck)
	}

	if err := w.Check(v); err != nil {
		return nil, fmt.Errorf("bgv encrypt: %w", err)
	}

	if err := checkWidth(key.cfg, w); err != nil {
		return nil, err
	}

	params := key.cfg.params

	pt := heint.NewPlaintext(params, params.MaxLevel())
	pt.IsBatched = false

	if err := key.encoder.Encode(encodeDigits(v, w, params.N()), pt); err != nil {
		return nil, fmt.Errorf("bgv encode: %w", err)
	}

	ct, err := key.encryptor.EncryptNew(pt)
	if err != nil {
		return nil, fatalf("bgv encrypt: %v", err)
	}

	return &bgvCiphertext{owner: key.id, width: w, ct: ct}, nil
}

// Install implements Backend.
func (b *BGV) Install(sk ServerKey) (Evaluator, error) {
	key, ok := sk.(*bgvServerKey)
	if !ok {
		return nil, fatalf("bgv: unexpected server key %T", sk)
	}

	return &bgvEvaluator{
		key:  key,
		eval: heint.NewEvaluator(key.cfg.params, key.evk),
	}, nil
}

// Apply implements Evaluator.
func (e *bgvEvaluator) Apply(
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

	var out *rlwe.Ciphertext

	switch op {
	case catalog.Add:
		out, err = e.eval.AddNew(ca.ct, cb.ct)
	case catalog.Sub:
		out, err = e.eval.SubNew(ca.ct, cb.ct)
	case catalog.Mul:
		out, err = e.eval.MulRelinNew(ca.ct, cb.ct)
	default:
		return nil, &catalog.ConfigurationError{Value: op.String(), What: "operation"}
	}

	if err != nil {
		return nil, fatalf("bgv %s: %v", op, err)
	}

	return &bgvCiphertext{owner: e.key.id, width: ca.width, ct: out}, nil
}

func (e *bgvEvaluator) operand(ct Ciphertext) (*bgvCiphertext, error) {
	c, ok := ct.(*bgvCiphertext)
	if !ok {
		return nil, fatalf("bgv: unexpected ciphertext %T", ct)
	}

	if c.owner != e.key.id {
		return nil, fatalf("bgv: ciphertext was not encrypted under the installed key")
	}

	if err := checkWidth(e.key.cfg, c.width); err != nil {
		return nil, err
	}

	return c, nil
}

// Decrypt implements Backend.
func (b *BGV) Decrypt(ct Ciphertext, ck ClientKey) (uint64, error) {
	key, ok := ck.(*bgvClientKey)
	if !ok {
		return 0, fatalf("bgv: unexpected client key %T", ck)
	}

	c, ok := ct.(*bgvCiphertext)
	if !ok {
		return 0, fatalf("bgv: unexpected ciphertext %T", ct)
	}

	if c.owner != key.id {
		return 0, fatalf("bgv: ciphertext/key mismatch")
	}

	params := key.cfg.params
	pt := key.decryptor.DecryptNew(c.ct)

	coeffs := make([]uint64, params.N())
	if err := key.encoder.Decode(pt, coeffs); err != nil {
		return 0, fatalf("bgv decode: %v", err)
	}

	return decodeDigits(coeffs, c.width, params.PlaintextModulus()), nil
}

// encodeDigits spreads the little-endian bytes of v over the first
// w/8 coefficients of an n-coefficient polynomial.
func encodeDigits(v uint64, w catalog.Width, n int) []uint64 {
	coeffs := make([]uint64, n)
	for k := 0; k < w.Bytes(); k++ {
		coeffs[k] = (v >> (bgvDigitBits * k)) & 0xff
	}

	return coeffs
}

// decodeDigits centres each coefficient modulo t and recombines the
// digits modulo 2^w. Coefficients at or above w/8 only contribute
// multiples of 2^w and are ignored.
func decodeDigits(coeffs []uint64, w catalog.Width, t uint64) uint64 {
	var out uint64

	for k := 0; k < w.Bytes() && k < len(coeffs); k++ {
		c := int64(coeffs[k] % t)
		if uint64(c) > t/2 {
			c -= int64(t)
		}

		out += uint64(c) << (bgvDigitBits * k)
	}

	return w.Mask(out)
}
