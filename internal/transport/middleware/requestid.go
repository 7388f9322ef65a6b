package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/rbac-service/pkg/logger"
)

// TraceHeader carries the trace id in both directions.
const TraceHeader = "X-Trace-ID"

const maxTraceIDLength = 64

// RequestID tags the request logger and the response with a trace id. A caller supplied id is
// reused when it is short and printable, otherwise a fresh uuid is minted.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if !validTraceID(traceID) {
			traceID = uuid.NewString()
		}

		w.Header().Set(TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(logger.With(r.Context(), "trace_id", traceID)))
	})
}

func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLength {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}
