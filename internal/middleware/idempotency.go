package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	repo "github.com/baharkarakas/paywall-backend/internal/repository"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

type bodyRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the stored reply for a repeated Idempotency-Key. Keys are
// scoped per user, so it must run after Auth. A nil store or a store error lets
// the request through.
func Idempotency(store repo.IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderIdempotencyKey)
			if key == "" || len(key) > 255 {
				next.ServeHTTP(w, r)
				return
			}
			uid, _ := UserID(r.Context())
			scoped := uid + ":" + r.Method + ":" + r.URL.Path + ":" + key

			ctx := r.Context()
			cached, err := store.Get(ctx, scoped)
			if err != nil {
				slog.Error("idempotency lookup failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if cached != nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("X-Idempotency-Hit", "true")
				w.WriteHeader(cached.StatusCode)
				_, _ = w.Write(cached.Body)
				return
			}

			rec := &bodyRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			// 5xx stays retryable
			if rec.statusCode < 500 {
				if err := store.Save(ctx, scoped, repo.CachedResponse{
					StatusCode: rec.statusCode,
					Body:       rec.body.Bytes(),
				}, idempotencyTTL); err != nil {
					slog.Error("idempotency save failed", "err", err)
				}
			}
		})
	}
}
