package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBlocksOverLimit(t *testing.T) {
	l := New(2, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, 200, do("1.2.3.4:1111"))
	assert.Equal(t, 200, do("1.2.3.4:2222"))
	assert.Equal(t, 429, do("1.2.3.4:3333"))

	// Other IPs get their own bucket.
	assert.Equal(t, 200, do("5.6.7.8:1111"))
}
