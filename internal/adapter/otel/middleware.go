package otel

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// untraced paths are polled or long-lived and would only add noise.
var untraced = map[string]bool{
	"/health": true,
	"/ws":     true,
}

// HTTPMiddleware traces API requests as "METHOD /path" server spans. Extra
// options are appended, which lets tests inject a tracer provider.
func HTTPMiddleware(serviceName string, extra ...otelhttp.Option) func(http.Handler) http.Handler {
	opts := append([]otelhttp.Option{
		otelhttp.WithFilter(func(r *http.Request) bool { return !untraced[r.URL.Path] }),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}, extra...)

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName, opts...)
	}
}
