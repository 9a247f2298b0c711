package middleware

import (
	"bytes"
	"net/http"
	"time"
)

// bufferedResponse captures the full response so nothing reaches the client
// before the floor elapses
type bufferedResponse struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(statusCode int) { b.statusCode = statusCode }

func (b *bufferedResponse) Write(p []byte) (int, error) { return b.body.Write(p) }

// ResponseFloor holds every response until at least floor has elapsed since
// the request arrived, so fast rejections and slow verifications are
// indistinguishable to a caller measuring latency. Handlers that already
// took longer than the floor are flushed immediately.
func ResponseFloor(floor time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			buffered := newBufferedResponse()
			next.ServeHTTP(buffered, r)

			if elapsed := time.Since(start); elapsed < floor {
				time.Sleep(floor - elapsed)
			}

			for key, values := range buffered.header {
				for _, value := range values {
					w.Header().Add(key, value)
				}
			}
			w.WriteHeader(buffered.statusCode)
			w.Write(buffered.body.Bytes())
		})
	}
}
