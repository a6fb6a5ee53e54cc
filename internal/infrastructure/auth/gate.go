package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-chatline/internal/config"
	chat "go-chatline/internal/pkg/chat/application/domain"
	userport "go-chatline/internal/repository/port"
)

var (
	// ErrUnauthenticated rejects a connection or request before any work is done.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrLookup means the credential was valid but the user store failed.
	ErrLookup = errors.New("auth: user lookup failed")
)

// Claims is the token body. ID is the user id.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Gate verifies bearer credentials and resolves them to a stored user.
type Gate struct {
	secret []byte
	issuer string
	users  userport.UserRepository
	now    func() time.Time
}

func NewGate(cfg config.JWTConfig, users userport.UserRepository) *Gate {
	return &Gate{secret: []byte(cfg.Secret), issuer: cfg.Issuer, users: users, now: time.Now}
}

// Authenticate checks signature, algorithm, expiry and issuer, then loads the user.
func (g *Gate) Authenticate(ctx context.Context, token string) (chat.User, error) {
	if token == "" {
		return chat.User{}, fmt.Errorf("%w: missing credential", ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	}
	if g.issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	}, opts...)
	if err != nil {
		return chat.User{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if err := uuid.Validate(claims.ID); err != nil {
		return chat.User{}, fmt.Errorf("%w: bad subject: %v", ErrUnauthenticated, err)
	}

	user, err := g.users.FindByID(ctx, claims.ID)
	if errors.Is(err, chat.ErrNotFound) {
		return chat.User{}, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
	}
	if err != nil {
		return chat.User{}, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	return *user, nil
}

// TokenIssuer signs tokens the Gate accepts.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
