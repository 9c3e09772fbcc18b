package jws

// Config bounds the JWS engine's policy-sensitive behavior. It is
// local to this package rather than shared with pkg/jwe so neither
// engine package needs to import the other or the root pkg/jose
// package that composes them, avoiding an import cycle between the
// three.
type Config struct {
	// ECDSARequireLowS rejects ECDSA signatures whose S value is not
	// in the lower half of the curve order, the canonical-signature
	// convention popularized by BIP-0062 to remove the one bit of
	// signature malleability ECDSA otherwise permits (S and -S mod n
	// both verify against the same message and key).
	ECDSARequireLowS bool
}

// DefaultConfig returns this engine's default policy. ECDSARequireLowS
// is off by default: RFC 7518 does not require canonical S values, and
// rejecting a signature a compliant RFC 7515 signer produced would be
// a surprising default.
func DefaultConfig() Config {
	return Config{
		ECDSARequireLowS: false,
	}
}

// Option mutates a Config. Functional options are used here, following
// the teacher's own jwt.VerifyOption pattern, generalized to the JWS
// engine's policy surface.
type Option func(*Config)

// WithECDSARequireLowS enables or disables the low-S canonical
// signature requirement for ECDSA verification.
func WithECDSARequireLowS(require bool) Option {
	return func(c *Config) { c.ECDSARequireLowS = require }
}

func resolveConfig(opts []Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
