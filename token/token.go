// Package token mints short-lived RS256 credentials that authenticate this
// service to the upstream platform as its integration (app) identity.
package token

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"scoregate/core"
)

const (
	// DefaultSkew backdates iat to absorb clock drift with the verifier.
	DefaultSkew = 60 * time.Second
	// DefaultLifetime is exp - iat. The upstream rejects anything over 10m.
	DefaultLifetime = 9 * time.Minute
)

// Reasons reported to callers. They are wrapped with core.ErrConfiguration.
var (
	ErrMissingAppID  = errors.New("GITHUB_APP_ID not set")
	ErrInvalidAppID  = errors.New("GITHUB_APP_ID must be a positive integer")
	ErrKeyNotFound   = errors.New("private key not found")
	ErrKeyUnreadable = errors.New("private key unreadable")
	ErrInvalidKey    = errors.New("invalid private key")
)

// KeyError carries the key path that failed. It never holds key material.
type KeyError struct {
	Path string
	Err  error
}

func (e *KeyError) Error() string { return fmt.Sprintf("%v: %s", e.Err, e.Path) }

func (e *KeyError) Unwrap() []error { return []error{e.Err, core.ErrConfiguration} }

// Credential is a signed assertion of the integration identity.
type Credential struct {
	IssuerID  int64     `json:"issuer_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"jwt"`
}

// Issuer mints credentials. It holds no key material between calls.
type Issuer struct {
	now      func() time.Time
	skew     time.Duration
	lifetime time.Duration
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithSkew overrides the iat backdating.
func WithSkew(d time.Duration) Option {
	return func(i *Issuer) {
		if d >= 0 {
			i.skew = d
		}
	}
}

// WithLifetime overrides exp - iat.
func WithLifetime(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.lifetime = d
		}
	}
}

func NewIssuer(opts ...Option) *Issuer {
	i := &Issuer{now: time.Now, skew: DefaultSkew, lifetime: DefaultLifetime}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ParseAppID converts the configured identifier into the numeric issuer.
func ParseAppID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %w", core.ErrConfiguration, ErrMissingAppID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %w", core.ErrConfiguration, ErrInvalidAppID)
	}
	return id, nil
}

// Issue reads the PEM key at keyPath and signs a fresh credential for
// appID. Nothing is cached: every call re-reads the key and mints a new
// token.
func (i *Issuer) Issue(appID int64, keyPath string) (Credential, error) {
	if appID <= 0 {
		return Credential{}, fmt.Errorf("%w: %w", core.ErrConfiguration, ErrMissingAppID)
	}
	pem, err := os.ReadFile(keyPath) // #nosec G304 - operator-configured path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credential{}, &KeyError{Path: keyPath, Err: ErrKeyNotFound}
		}
		return Credential{}, &KeyError{Path: keyPath, Err: ErrKeyUnreadable}
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return Credential{}, &KeyError{Path: keyPath, Err: ErrInvalidKey}
	}

	issuedAt := ceilSecond(i.now()).Add(-i.skew)
	expiresAt := issuedAt.Add(i.lifetime)
	claims := jwt.MapClaims{
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
		"iss": appID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return Credential{}, &KeyError{Path: keyPath, Err: ErrInvalidKey}
	}
	return Credential{IssuerID: appID, IssuedAt: issuedAt, ExpiresAt: expiresAt, Token: signed}, nil
}

// ceilSecond rounds t up to a whole second so that, after backdating by
// the skew, t never falls past iat + skew.
func ceilSecond(t time.Time) time.Time {
	tr := t.Truncate(time.Second)
	if tr.Equal(t) {
		return tr
	}
	return tr.Add(time.Second)
}
