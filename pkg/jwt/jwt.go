package jwt

import (
	"errors"
	"maps"
	"strconv"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of tokens issued without WithTTL.
const DefaultTTL = time.Hour

// Service issues and verifies HS256 tokens.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	leeway     time.Duration
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets "iss" on issued tokens and requires it on parsed ones.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithTTL sets the lifetime of issued tokens.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLeeway tolerates clock skew when checking exp/nbf/iat.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) { s.leeway = d }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a service. The key should be at least 32 bytes.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: signingKey,
		ttl:        DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString is New for string keys coming from configuration.
func NewFromString(signingKey string, opts ...Option) (*Service, error) {
	return New([]byte(signingKey), opts...)
}

// Issue signs a token for subject. Extra claims are merged on top of the
// registered ones, e.g. {"tenant_id": 42}.
func (s *Service) Issue(subject string, extra map[string]any) (string, error) {
	if subject == "" {
		return "", ErrMissingClaims
	}

	now := s.now()
	claims := gojwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": uuid.NewString(),
	}
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}
	maps.Copy(claims, extra)

	return s.Generate(claims)
}

// IssueFor is Issue for numeric principal ids.
func (s *Service) IssueFor(principalID int64, extra map[string]any) (string, error) {
	return s.Issue(strconv.FormatInt(principalID, 10), extra)
}

// Generate signs arbitrary claims.
func (s *Service) Generate(claims gojwt.Claims) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// Parse verifies the signature, algorithm and time-based claims of token.
func (s *Service) Parse(token string) (Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithJSONNumber(),
		gojwt.WithLeeway(s.leeway),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithIssuedAt(),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	claims := gojwt.MapClaims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		return nil, translate(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return Claims(claims), nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return errors.Join(ErrExpiredToken, err)
	case errors.Is(err, ErrUnexpectedSigningMethod):
		return ErrUnexpectedSigningMethod
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return errors.Join(ErrInvalidSignature, err)
	case errors.Is(err, gojwt.ErrTokenInvalidClaims),
		errors.Is(err, gojwt.ErrTokenInvalidIssuer),
		errors.Is(err, gojwt.ErrTokenNotValidYet),
		errors.Is(err, gojwt.ErrTokenUsedBeforeIssued):
		return errors.Join(ErrInvalidClaims, err)
	default:
		return errors.Join(ErrInvalidToken, err)
	}
}
