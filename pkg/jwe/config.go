package jwe

// Config bounds the JWE engine's policy-sensitive behavior: iteration
// count windows for PBES2, the decompression ceiling for "zip":"DEF",
// and whether the deprecated RSA1_5 key management algorithm may be
// used at all. It is local to this package rather than shared with
// pkg/jws so neither engine package needs to import the other or the
// root pkg/jose package that composes them, avoiding an import cycle
// between the three.
type Config struct {
	// MaxPBES2Iterations is the largest "p2c" this engine will honor
	// when deriving a PBES2 key-wrapping key.
	MaxPBES2Iterations int

	// MinPBES2Iterations is the smallest "p2c" this engine will honor.
	MinPBES2Iterations int

	// MaxDecompressedSize bounds how large a "zip":"DEF" payload may
	// inflate to, preventing a decompression-bomb denial of service.
	MaxDecompressedSize int

	// AllowRSA1_5 permits the deprecated RSAES-PKCS1-v1_5 key
	// management algorithm, off by default due to its history of
	// Bleichenbacher padding-oracle vulnerabilities.
	AllowRSA1_5 bool

	// MaxSymmetricKeyBits caps the size of a direct/wrapped symmetric
	// key beyond whatever the algorithm itself already requires; 0
	// means no additional cap.
	MaxSymmetricKeyBits int
}

// DefaultConfig returns this engine's default policy.
func DefaultConfig() Config {
	return Config{
		MaxPBES2Iterations:  1_000_000,
		MinPBES2Iterations:  1_000,
		MaxDecompressedSize: 250_000,
		AllowRSA1_5:         false,
		MaxSymmetricKeyBits: 0,
	}
}

// Option mutates a Config. Functional options are used here, following
// the teacher's own jwt.VerifyOption pattern, generalized to the JWE
// engine's policy surface.
type Option func(*Config)

// WithMaxPBES2Iterations overrides the maximum accepted "p2c".
func WithMaxPBES2Iterations(n int) Option {
	return func(c *Config) { c.MaxPBES2Iterations = n }
}

// WithMinPBES2Iterations overrides the minimum accepted "p2c".
func WithMinPBES2Iterations(n int) Option {
	return func(c *Config) { c.MinPBES2Iterations = n }
}

// WithMaxDecompressedSize overrides the decompression ceiling.
func WithMaxDecompressedSize(n int) Option {
	return func(c *Config) { c.MaxDecompressedSize = n }
}

// WithAllowRSA1_5 permits or forbids the RSA1_5 key management
// algorithm.
func WithAllowRSA1_5(allow bool) Option {
	return func(c *Config) { c.AllowRSA1_5 = allow }
}

// WithMaxSymmetricKeyBits overrides the symmetric key size cap.
func WithMaxSymmetricKeyBits(n int) Option {
	return func(c *Config) { c.MaxSymmetricKeyBits = n }
}

func resolveConfig(opts []Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
