package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/memorycare-backend/pkg/ctxutil"
)

func newLimitedHandler(t *testing.T, maxPerMinute int) http.Handler {
	t.Helper()
	rl := NewRateLimiter(time.Minute)
	t.Cleanup(rl.Stop)
	return rl.Limit(maxPerMinute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remoteAddr string, userID *uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.RemoteAddr = remoteAddr
	if userID != nil {
		req = req.WithContext(ctxutil.WithUserID(req.Context(), *userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(t, 10)

	for i := range 10 {
		assert.Equal(t, http.StatusOK, hit(h, "1.2.3.4:1234", nil).Code, "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(t, 5)

	for range 5 {
		require.Equal(t, http.StatusOK, hit(h, "1.2.3.4:1234", nil).Code)
	}

	rec := hit(h, "1.2.3.4:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "13", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_SameHostDifferentPorts(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(t, 1)

	assert.Equal(t, http.StatusOK, hit(h, "1.2.3.4:1000", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "1.2.3.4:1001", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "1.2.3.4:1002", nil).Code)
}

func TestRateLimiter_IPv6HostDifferentPorts(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(t, 1)

	assert.Equal(t, http.StatusOK, hit(h, "[2001:db8::1]:4000", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "[2001:db8::1]:4001", nil).Code)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(t, 2)

	for range 2 {
		hit(h, "1.1.1.1:1234", nil)
	}

	assert.Equal(t, http.StatusTooManyRequests, hit(h, "1.1.1.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, hit(h, "2.2.2.2:5678", nil).Code)
}

func TestRateLimiter_KeysAuthenticatedByUser(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(t, 1)
	alice, bob := uuid.New(), uuid.New()

	// Two users behind one NAT get separate buckets.
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000", &alice).Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1001", &bob).Code)

	// One user moving between addresses keeps a single bucket.
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.2:2000", &alice).Code)

	// Anonymous traffic from the shared address is still counted apart.
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1002", nil).Code)
}

func TestRateLimiter_UnparsableRemoteAddr(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(t, 1)

	assert.Equal(t, http.StatusOK, hit(h, "unix-socket", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "unix-socket", nil).Code)
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	t.Parallel()
	// 60 per minute = 1 per second
	h := newLimitedHandler(t, 60)

	for range 60 {
		hit(h, "3.3.3.3:1234", nil)
	}
	require.Equal(t, http.StatusTooManyRequests, hit(h, "3.3.3.3:1234", nil).Code)

	time.Sleep(1100 * time.Millisecond)

	assert.Equal(t, http.StatusOK, hit(h, "3.3.3.3:1234", nil).Code)
}

func TestRateLimiter_StopIdempotent(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(time.Minute)

	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}
