package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
)

// maxLoggedBody caps how much of a request or response body ends up in a log line.
const maxLoggedBody = 4 << 10

const redacted = "[REDACTED]"

// secretKeys are matched against lowercased header and JSON key names with '_' and '-' removed.
var secretKeys = []string{
	"password",
	"token",
	"authorization",
	"cookie",
	"secret",
	"accesskey",
	"apikey",
	"credential",
}

// LoggingMiddleware logs every request and its response with credentials redacted.
// Only JSON bodies are logged; uploads and other payloads are summarised by type and size.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			logger.InfoContext(r.Context(), "incoming request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", redactHeaders(r.Header),
				"body", peekRequestBody(r),
			)

			cw := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r)

			status := cw.status
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "response",
				"request_id", reqID,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", cw.size,
				"body", describeBody(cw.Header().Get("Content-Type"), cw.head.Bytes(), int64(cw.size)),
			)
		})
	}
}

// captureWriter keeps the status code, the byte count and the first maxLoggedBody bytes written.
type captureWriter struct {
	http.ResponseWriter
	status int
	size   int
	head   bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - cw.head.Len(); room > 0 {
		cw.head.Write(b[:min(room, len(b))])
	}
	n, err := cw.ResponseWriter.Write(b)
	cw.size += n
	return n, err
}

// peekRequestBody reads at most maxLoggedBody bytes of a JSON body and puts them back in front of the rest.
func peekRequestBody(r *http.Request) string {
	contentType := r.Header.Get("Content-Type")
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	if !isJSON(contentType) {
		return describeBody(contentType, nil, r.ContentLength)
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return describeBody(contentType, head, int64(len(head)))
}

func describeBody(contentType string, head []byte, size int64) string {
	if !isJSON(contentType) {
		if size <= 0 {
			return ""
		}
		return fmt.Sprintf("[%s, %d bytes]", contentType, size)
	}
	if len(head) == 0 {
		return ""
	}

	var doc interface{}
	if err := json.Unmarshal(head, &doc); err != nil {
		// truncated or malformed, so keys cannot be checked one by one
		return fmt.Sprintf("[unparsed json, %d bytes]", size)
	}
	out, err := json.Marshal(redactJSON(doc))
	if err != nil {
		return "[unloggable json]"
	}
	return string(out)
}

func isJSON(contentType string) bool {
	return contentType == "" || strings.Contains(strings.ToLower(contentType), "json")
}

func isSecret(name string) bool {
	key := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(name))
	for _, secret := range secretKeys {
		if strings.Contains(key, secret) {
			return true
		}
	}
	return false
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSecret(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func redactJSON(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for key, value := range node {
			if isSecret(key) {
				out[key] = redacted
				continue
			}
			out[key] = redactJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, item := range node {
			out[i] = redactJSON(item)
		}
		return out
	default:
		return v
	}
}
