package middleware

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

type contextKeyClientInfo struct{}

// ContextKeyClientInfo is exported for use in handlers
var ContextKeyClientInfo = contextKeyClientInfo{}

// GetClientInfo retrieves the parsed client description from the context
func GetClientInfo(ctx context.Context) string {
	client, ok := ctx.Value(ContextKeyClientInfo).(string)
	if !ok {
		return ""
	}
	return client
}

// WithClientInfo attaches a client description to the context. Exposed for
// callers that enter the service layer without going through the middleware.
func WithClientInfo(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ContextKeyClientInfo, client)
}

// ClientInfo parses the User-Agent header into a compact browser/OS
// description and attaches it to the request context. Audit events pick it
// up from there; requests without a User-Agent pass through unchanged.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("User-Agent")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		ua := useragent.New(raw)
		name, version := ua.Browser()
		client := name
		if version != "" {
			client += "/" + version
		}
		if os := ua.OS(); os != "" {
			client += " (" + os + ")"
		}
		next.ServeHTTP(w, r.WithContext(WithClientInfo(r.Context(), client)))
	})
}
