package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// RequestTimeout ограничивает контекст запроса
// Ожидание блокировки на запись прерывается по этому дедлайну
func RequestTimeout(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
