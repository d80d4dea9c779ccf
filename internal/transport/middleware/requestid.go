package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/employee-management/pkg/logger"
)

const TraceIDHeader = "X-Trace-ID"

// RequestID reuses an inbound X-Trace-ID or mints one. The id is written back on the
// request so the gateway proxy forwards it downstream.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
			r.Header.Set(TraceIDHeader, traceID)
		}

		ctx := logger.With(r.Context(), "traceID", traceID)

		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
