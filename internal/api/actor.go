package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

type actorClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// ActorResolver identifies the user acting on a request. With a JWT secret
// configured the actor comes from the bearer token only; otherwise from the
// user id header.
type ActorResolver struct {
	header string
	secret []byte
}

func NewActorResolver(cfg config.APIAuthConfig) *ActorResolver {
	header := strings.TrimSpace(cfg.HeaderUserID)
	if header == "" {
		header = config.DefaultHeaderUserID
	}
	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}
	return &ActorResolver{header: header, secret: secret}
}

// Header is the name of the user id header.
func (a *ActorResolver) Header() string {
	return a.header
}

func (a *ActorResolver) Resolve(userHeader, authorization string) (int64, error) {
	if a.secret != nil {
		return a.fromToken(authorization)
	}

	raw := strings.TrimSpace(userHeader)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s header", domain.ErrInvalidArgument, a.header)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s header: %q", domain.ErrInvalidArgument, a.header, raw)
	}
	return id, nil
}

func (a *ActorResolver) fromToken(authorization string) (int64, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return 0, fmt.Errorf("%w: missing bearer token", errUnauthenticated)
	}

	tokenStr := strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix))
	claims := &actorClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: invalid token", errUnauthenticated)
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: token has no user_id", errUnauthenticated)
	}
	return claims.UserID, nil
}

// IssueToken signs an HS256 token carrying userID, valid for ttl.
func IssueToken(secret string, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := actorClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
