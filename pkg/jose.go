package jose

import (
	"sync"

	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwa"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwe"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jws"
	"github.com/TanqiZhou/nimbus-jose-jwt/pkg/jwt"
)

// Config gathers the policy knobs of the pkg/jwe and pkg/jws engines
// behind one surface, so a caller who doesn't need per-engine control
// can configure a Provider once instead of importing both engines'
// Config types directly.
type Config struct {
	// MaxPBES2Iterations and MinPBES2Iterations bound the accepted
	// "p2c" for PBES2 key management, forwarded to jwe.Config.
	MaxPBES2Iterations int
	MinPBES2Iterations int

	// MaxDecompressedSize bounds "zip":"DEF" inflation, forwarded to
	// jwe.Config.
	MaxDecompressedSize int

	// AllowRSA1_5 permits the deprecated RSAES-PKCS1-v1_5 key
	// management algorithm, forwarded to jwe.Config.
	AllowRSA1_5 bool

	// MaxSymmetricKeyBits caps direct/wrapped symmetric key sizes,
	// forwarded to jwe.Config.
	MaxSymmetricKeyBits int

	// ECDSARequireLowS rejects non-canonical high-S ECDSA signatures,
	// forwarded to jws.Config and jwt.VerifyConfig.
	ECDSARequireLowS bool
}

// DefaultConfig returns the combined default policy of the underlying
// pkg/jwe and pkg/jws engines.
func DefaultConfig() Config {
	jweDefault := jwe.DefaultConfig()
	jwsDefault := jws.DefaultConfig()
	return Config{
		MaxPBES2Iterations:  jweDefault.MaxPBES2Iterations,
		MinPBES2Iterations:  jweDefault.MinPBES2Iterations,
		MaxDecompressedSize: jweDefault.MaxDecompressedSize,
		AllowRSA1_5:         jweDefault.AllowRSA1_5,
		MaxSymmetricKeyBits: jweDefault.MaxSymmetricKeyBits,
		ECDSARequireLowS:    jwsDefault.ECDSARequireLowS,
	}
}

// JWEOptions translates c into the jwe.Option set that reproduces its
// JWE-relevant fields.
func (c Config) JWEOptions() []jwe.Option {
	return []jwe.Option{
		jwe.WithMaxPBES2Iterations(c.MaxPBES2Iterations),
		jwe.WithMinPBES2Iterations(c.MinPBES2Iterations),
		jwe.WithMaxDecompressedSize(c.MaxDecompressedSize),
		jwe.WithAllowRSA1_5(c.AllowRSA1_5),
		jwe.WithMaxSymmetricKeyBits(c.MaxSymmetricKeyBits),
	}
}

// JWSOptions translates c into the jws.Option set that reproduces its
// JWS-relevant fields.
func (c Config) JWSOptions() []jws.Option {
	return []jws.Option{
		jws.WithECDSARequireLowS(c.ECDSARequireLowS),
	}
}

// VerifyOptions translates c into a jwt.VerifyOption prefix a caller
// can pass ahead of their own call-specific options (allowed keys,
// issuers, audiences, ...) to jwt.Token.Verify or ParseAndVerify.
func (c Config) VerifyOptions() []jwt.VerifyOption {
	return []jwt.VerifyOption{
		jwt.WithECDSARequireLowS(c.ECDSARequireLowS),
	}
}

// Option mutates a Config. Functional options are used here, following
// the teacher's jwt.VerifyOption pattern and this module's pkg/jwe and
// pkg/jws Config surfaces.
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

// WithECDSARequireLowS enables or disables the low-S canonical ECDSA
// signature requirement.
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

// Provider is an explicitly constructed handle around this module's
// three engines (pkg/jws, pkg/jwe, pkg/jwt), holding one Config and a
// registry of allowed algorithms that is built once, on first use,
// rather than at package init. This replaces the "configure via
// global package-level variables" shape a JOSE library could
// otherwise fall into: every caller constructs (or reuses) its own
// Provider instead of mutating process-wide state.
type Provider struct {
	cfg Config

	once    sync.Once
	allowed jwa.AllowedAlgorithms
}

// NewProvider returns a Provider configured with opts. The default
// algorithm registry is not built until the first call that needs it.
func NewProvider(opts ...Option) *Provider {
	return &Provider{cfg: resolveConfig(opts)}
}

// Config returns the Provider's resolved configuration.
func (p *Provider) Config() Config {
	return p.cfg
}

// AllowedAlgorithms returns this Provider's algorithm registry,
// lazily initialized to jwa.DefaultAllowedAlgorithms on first call and
// cached for the Provider's lifetime.
func (p *Provider) AllowedAlgorithms() jwa.AllowedAlgorithms {
	p.once.Do(func() {
		p.allowed = jwa.DefaultAllowedAlgorithms()
	})
	return p.allowed
}

// VerifyOptions returns the jwt.VerifyOption prefix derived from the
// Provider's Config plus its allowed-algorithm registry, for callers
// building a jwt.Token.Verify or jwt.ParseAndVerify call.
func (p *Provider) VerifyOptions(extra ...jwt.VerifyOption) []jwt.VerifyOption {
	opts := append(p.cfg.VerifyOptions(), jwt.WithAllowedAlgorithms(p.AllowedAlgorithms().List()...))
	return append(opts, extra...)
}

// Handlers adapts three functions into a jwt.Handler, for callers who
// would rather pass closures than define a named type satisfying the
// interface. A nil field is treated as a no-op for that Kind.
type Handlers struct {
	Plain     func(*jwt.Token) error
	Signed    func(*jwt.Token) error
	Encrypted func(*jwt.Token) error
}

func (h Handlers) OnPlain(t *jwt.Token) error {
	if h.Plain == nil {
		return nil
	}
	return h.Plain(t)
}

func (h Handlers) OnSigned(t *jwt.Token) error {
	if h.Signed == nil {
		return nil
	}
	return h.Signed(t)
}

func (h Handlers) OnEncrypted(t *jwt.Token) error {
	if h.Encrypted == nil {
		return nil
	}
	return h.Encrypted(t)
}
