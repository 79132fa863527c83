package api

import (
	"errors"
	"net/http"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	errUnauthenticated  = errors.New("unauthenticated")
	errPermissionDenied = errors.New("permission denied")
	errRateLimited      = errors.New("rate limit exceeded")
)

func httpStatus(err error) int {
	switch {
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errPermissionDenied), errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, errUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, errPermissionDenied), errors.Is(err, domain.ErrForbidden):
		return codes.PermissionDenied
	case errors.Is(err, errRateLimited):
		return codes.ResourceExhausted
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrConflict):
		return codes.AlreadyExists
	case errors.Is(err, domain.ErrInvalidState):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrInvalidArgument):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// grpcError converts a service error into a status error. Internal errors
// are logged and their text is not sent to the client.
func grpcError(logger *zerolog.Logger, err error) error {
	code := grpcCode(err)
	if code == codes.Internal {
		logger.Error().Err(err).Msg("grpc internal error")
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func writeServiceError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("http internal error")
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}
