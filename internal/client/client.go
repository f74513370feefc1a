package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/noah-isme/storecart/internal/common"
)

type contextKey string

const clientContextKey contextKey = "client.id"

// DefaultHeader carries an explicit client identifier.
const DefaultHeader = "X-Client-ID"

// maxIDLength bounds header-supplied identifiers.
const maxIDLength = 128

// With stores the client identifier in ctx.
func With(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, clientContextKey, id)
}

// From returns the client identifier stored in ctx.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(clientContextKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Resolver derives a client identifier from the request header, falling back
// to the client IP.
type Resolver struct {
	HeaderName string
}

// NewResolver returns a resolver reading headerName, or X-Client-ID when empty.
func NewResolver(headerName string) *Resolver {
	if strings.TrimSpace(headerName) == "" {
		headerName = DefaultHeader
	}
	return &Resolver{HeaderName: headerName}
}

// Resolve returns the identifier for req.
func (r *Resolver) Resolve(req *http.Request) string {
	if req == nil {
		return ""
	}
	header := DefaultHeader
	if r != nil && r.HeaderName != "" {
		header = r.HeaderName
	}
	if id := strings.TrimSpace(req.Header.Get(header)); id != "" && len(id) <= maxIDLength {
		return "id:" + id
	}
	if ip := common.ClientIP(req); ip != "" {
		return "ip:" + ip
	}
	return ""
}

// Middleware injects the resolved client identifier into the request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if id := r.Resolve(req); id != "" {
			req = req.WithContext(With(req.Context(), id))
		}
		next.ServeHTTP(w, req)
	})
}

// Key returns the client identifier of req, resolving it when the middleware
// did not run.
func Key(req *http.Request) string {
	if req == nil {
		return ""
	}
	if id, ok := From(req.Context()); ok {
		return id
	}
	return (*Resolver)(nil).Resolve(req)
}
