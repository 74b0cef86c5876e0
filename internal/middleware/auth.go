package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/2beens/abtracker/internal/telemetry/tracing"
	"github.com/2beens/abtracker/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=middleware_test

const TokenHeader = "X-ABTRACKER-TOKEN"

type tokenChecker interface {
	IsValid(ctx context.Context, token string) (bool, error)
}

// HashedTokenChecker checks write tokens against a bcrypt hash. The last
// accepted token is remembered, so only new tokens pay for the bcrypt
// comparison.
type HashedTokenChecker struct {
	tokenHash string

	mutex         sync.RWMutex
	lastValidated string
}

func NewHashedTokenChecker(tokenHash string) *HashedTokenChecker {
	return &HashedTokenChecker{tokenHash: tokenHash}
}

func (c *HashedTokenChecker) IsValid(ctx context.Context, token string) (bool, error) {
	_, span := tracing.GlobalTracer.Start(ctx, "middleware.auth.checkToken")
	defer span.End()

	c.mutex.RLock()
	cached := c.lastValidated != "" && c.lastValidated == token
	c.mutex.RUnlock()
	if cached {
		return true, nil
	}

	if !pkg.CheckTokenHash(token, c.tokenHash) {
		return false, nil
	}

	c.mutex.Lock()
	c.lastValidated = token
	c.mutex.Unlock()
	return true, nil
}

// AuthMiddlewareHandler guards write requests. Reads are open.
type AuthMiddlewareHandler struct {
	checker tokenChecker
}

func NewAuthMiddlewareHandler(checker tokenChecker) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		checker: checker,
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if !isWriteMethod(r.Method) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get(TokenHeader)
			if authToken == "" {
				authToken = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			valid, err := h.checker.IsValid(ctx, authToken)
			if err != nil {
				log.Errorf("[failed token check] => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "check-token-err")
				span.RecordError(err)
				return
			}
			if !valid {
				log.Warnf("[invalid token] [auth middleware] unauthorized %s => %s", pkg.ClientIP(r), r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
