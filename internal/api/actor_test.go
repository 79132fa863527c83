package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestActorResolver_Header(t *testing.T) {
	resolver := NewActorResolver(config.APIAuthConfig{})
	assert.Equal(t, config.DefaultHeaderUserID, resolver.Header())

	id, err := resolver.Resolve(" 42 ", "")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		_, err := resolver.Resolve(raw, "")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, raw)
	}
}

func TestActorResolver_Token(t *testing.T) {
	const secret = "s3cret"
	resolver := NewActorResolver(config.APIAuthConfig{JWTSecret: secret})

	token, err := IssueToken(secret, 7, time.Hour)
	require.NoError(t, err)

	id, err := resolver.Resolve("", bearerPrefix+token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	t.Run("HeaderIgnored", func(t *testing.T) {
		_, err := resolver.Resolve("7", "")
		assert.ErrorIs(t, err, errUnauthenticated)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		forged, err := IssueToken("other", 7, time.Hour)
		require.NoError(t, err)
		_, err = resolver.Resolve("", bearerPrefix+forged)
		assert.ErrorIs(t, err, errUnauthenticated)
	})

	t.Run("Expired", func(t *testing.T) {
		expired, err := IssueToken(secret, 7, -time.Minute)
		require.NoError(t, err)
		_, err = resolver.Resolve("", bearerPrefix+expired)
		assert.ErrorIs(t, err, errUnauthenticated)
	})

	t.Run("NoUserID", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = resolver.Resolve("", bearerPrefix+raw)
		assert.ErrorIs(t, err, errUnauthenticated)
	})

	t.Run("OtherAlgorithm", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, actorClaims{UserID: 7}).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = resolver.Resolve("", bearerPrefix+raw)
		assert.ErrorIs(t, err, errUnauthenticated)
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		http int
		grpc codes.Code
	}{
		{fmt.Errorf("%w: booking 1", domain.ErrNotFound), http.StatusNotFound, codes.NotFound},
		{fmt.Errorf("%w: not owner", domain.ErrForbidden), http.StatusForbidden, codes.PermissionDenied},
		{fmt.Errorf("%w: decided", domain.ErrInvalidState), http.StatusBadRequest, codes.FailedPrecondition},
		{fmt.Errorf("%w: bad", domain.ErrInvalidArgument), http.StatusBadRequest, codes.InvalidArgument},
		{fmt.Errorf("%w: email", domain.ErrConflict), http.StatusConflict, codes.AlreadyExists},
		{errUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
		{errPermissionDenied, http.StatusForbidden, codes.PermissionDenied},
		{errRateLimited, http.StatusTooManyRequests, codes.ResourceExhausted},
		{errors.New("disk on fire"), http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.http, httpStatus(tt.err), tt.err.Error())
		assert.Equal(t, tt.grpc, grpcCode(tt.err), tt.err.Error())
	}
}

func TestParsePage(t *testing.T) {
	page, err := parsePage("", "")
	require.NoError(t, err)
	assert.Zero(t, page)

	page, err = parsePage("2", "5")
	require.NoError(t, err)
	assert.Equal(t, 2, page.From)
	assert.Equal(t, 5, page.Size)

	for _, bad := range [][2]string{{"x", ""}, {"", "y"}, {"-1", ""}, {"", "-2"}} {
		_, err := parsePage(bad[0], bad[1])
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, bad)
	}
}
