package httpapi

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookieName is the name of the cookie carrying the session token.
const SessionCookieName = "librarydesk_session"

const minSecretLength = 24

var (
	ErrSessionNotConfigured  = errors.New("session user, password and secret must be set")
	ErrSessionSecretTooShort = errors.New("session secret must be at least 24 characters")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidSession        = errors.New("invalid session")
)

// SessionConfig configures Sessions.
type SessionConfig struct {
	User     string
	Password string
	Secret   string
	TTL      time.Duration

	// Secure marks the cookie as https-only. It is set in production.
	Secure bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Sessions checks the single configured login and issues and verifies session tokens.
type Sessions struct {
	user         string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	secure       bool
	now          func() time.Time
}

// NewSessions hashes the configured password once, so logins are compared against a bcrypt hash.
func NewSessions(cfg SessionConfig) (*Sessions, error) {
	if cfg.User == "" || cfg.Password == "" || cfg.Secret == "" {
		return nil, ErrSessionNotConfigured
	}

	if len(cfg.Secret) < minSecretLength {
		return nil, ErrSessionSecretTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Sessions{
		user:         cfg.User,
		passwordHash: hash,
		secret:       []byte(cfg.Secret),
		ttl:          ttl,
		secure:       cfg.Secure,
		now:          now,
	}, nil
}

// Verify reports whether user and password match the configured login.
func (s *Sessions) Verify(user, password string) bool {
	userMatches := subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) == 1
	passwordMatches := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil

	return userMatches && passwordMatches
}

// Issue signs a session token for user.
func (s *Sessions) Issue(user string) (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   user,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Subject verifies token and returns the user it was issued for.
func (s *Sessions) Subject(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidSession
	}

	return claims.Subject, nil
}
