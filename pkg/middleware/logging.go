package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dwikikusuma/techstore/pkg/logger"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

const reqBodyLimit = 8 * 1024

var redactedKeys = map[string]struct{}{
	"password":      {},
	"authorization": {},
	"token":         {},
	"secret":        {},
}

// Logging puts a request-scoped logger in the context and logs one line per request.
// It expects chi's RequestID middleware to run first.
func Logging(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			l := base.With(
				"req_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
			)
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				l = l.With("trace_id", sc.TraceID().String())
			}

			var reqBody string
			if strings.Contains(r.Header.Get("Content-Type"), "application/json") && r.Body != nil {
				body, truncated := readCapped(r.Body, reqBodyLimit)
				r.Body = io.NopCloser(bytes.NewReader(body))
				logged := redactJSON(body)
				if truncated {
					logged = append(logged, []byte("...truncated...")...)
				}
				reqBody = string(logged)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"status", status,
				"dur_ms", time.Since(start).Milliseconds(),
				"resp_bytes", ww.BytesWritten(),
			}
			if reqBody != "" {
				attrs = append(attrs, "req_body", reqBody)
			}

			switch {
			case status >= http.StatusInternalServerError:
				l.Error("http_request", attrs...)
			case status >= http.StatusBadRequest:
				l.Warn("http_request", attrs...)
			default:
				l.Info("http_request", attrs...)
			}
		})
	}
}

// readCapped reads the whole body but reports whether it exceeded n bytes.
func readCapped(rc io.ReadCloser, n int) ([]byte, bool) {
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	return b, len(b) > n
}

func redactJSON(raw []byte) []byte {
	if len(raw) > reqBodyLimit {
		raw = raw[:reqBodyLimit]
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return []byte("<unparsed>")
	}
	b, err := json.Marshal(scrub(v))
	if err != nil {
		return []byte("<unparsed>")
	}
	return b
}

func scrub(x any) any {
	switch v := x.(type) {
	case map[string]any:
		for k, val := range v {
			if _, ok := redactedKeys[strings.ToLower(k)]; ok {
				v[k] = "***redacted***"
				continue
			}
			v[k] = scrub(val)
		}
		return v
	case []any:
		for i := range v {
			v[i] = scrub(v[i])
		}
		return v
	default:
		return v
	}
}
