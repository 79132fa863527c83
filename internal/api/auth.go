package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"

	"shareit/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	permRead         = "bookings:read"
	permWrite        = "bookings:write"
	clientKeyUnknown = "unknown"
)

// apiKeyAuth checks the api key / extra header pair against configured
// clients. A client with no permissions listed may call everything.
type apiKeyAuth struct {
	headerKey   string
	headerExtra string
	clients     map[string]config.APIClientKey
}

func newAPIKeyAuth(cfg config.APIAuthConfig) *apiKeyAuth {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}

	headerKey := strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if headerKey == "" {
		headerKey = config.DefaultHeaderAPIKey
	}
	headerExtra := strings.ToLower(strings.TrimSpace(cfg.HeaderExtra))
	if headerExtra == "" {
		headerExtra = config.DefaultHeaderExtra
	}

	return &apiKeyAuth{headerKey: headerKey, headerExtra: headerExtra, clients: m}
}

func (a *apiKeyAuth) check(apiKey, extra, required string) error {
	if apiKey == "" || extra == "" {
		return fmt.Errorf("%w: missing api key headers", errUnauthenticated)
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return fmt.Errorf("%w: invalid api key", errUnauthenticated)
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return fmt.Errorf("%w: invalid extra header", errUnauthenticated)
	}

	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

// AuthInterceptor applies api key auth and per-client rate limiting to gRPC
// calls.
type AuthInterceptor struct {
	cfg     *config.APIConfig
	keys    *apiKeyAuth
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg *config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{
		cfg:     cfg,
		keys:    newAPIKeyAuth(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !a.cfg.Enabled {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		if a.cfg.Auth.Enabled {
			if md == nil {
				return nil, status.Error(grpcCode(errUnauthenticated), "missing metadata")
			}
			err := a.keys.check(first(md.Get(a.keys.headerKey)), first(md.Get(a.keys.headerExtra)), requiredPermission(info.FullMethod))
			if err != nil {
				return nil, status.Error(grpcCode(err), err.Error())
			}
		}

		if !a.limiter.allow(a.clientKey(ctx, md)) {
			return nil, status.Error(grpcCode(errRateLimited), errRateLimited.Error())
		}

		return handler(ctx, req)
	}
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case methodGetBooking, methodListBookings, methodItemSummary:
		return permRead
	case methodSetApproval:
		return permWrite
	default:
		return ""
	}
}

func (a *AuthInterceptor) clientKey(ctx context.Context, md metadata.MD) string {
	if apiKey := first(md.Get(a.keys.headerKey)); apiKey != "" {
		return apiKey
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
// Health checks bypass it.
type HTTPAuth struct {
	cfg     config.APIConfig
	keys    *apiKeyAuth
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{
		cfg:     cfg,
		keys:    newAPIKeyAuth(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled || r.URL.Path == healthPath {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			apiKey := strings.TrimSpace(r.Header.Get(a.keys.headerKey))
			extra := strings.TrimSpace(r.Header.Get(a.keys.headerExtra))
			if err := a.keys.check(apiKey, extra, requiredPermissionHTTP(r)); err != nil {
				writeError(w, httpStatus(err), err.Error())
				return
			}
		}

		if !a.limiter.allow(a.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, errRateLimited.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requiredPermissionHTTP(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return permRead
	}
	return permWrite
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.keys.headerKey)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}
