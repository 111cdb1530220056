package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// newRequestFrom は指定したクライアントIPからのリクエストを生成するヘルパー。
func newRequestFrom(method, target, ip string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = ip + ":54321"
	return req
}

func testConfig(generalBurst, uploadBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		UploadRate:      1,
		UploadBurst:     uploadBurst,
		CleanupInterval: time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(testConfig(5, 10))
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newRequestFrom(http.MethodGet, "/api/users", "10.0.0.1"))

		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfterHeader(t *testing.T) {
	rl := NewRateLimiter(testConfig(2, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newRequestFrom(http.MethodGet, "/api/users", "10.0.0.2"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newRequestFrom(http.MethodGet, "/api/users", "10.0.0.2"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Errorf("Retry-After = %q, want positive integer", w.Header().Get("Retry-After"))
	}
}

func TestRateLimitMiddleware_429ResponseIsJSON(t *testing.T) {
	rl := NewRateLimiter(testConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), newRequestFrom(http.MethodGet, "/", "10.0.0.3"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newRequestFrom(http.MethodGet, "/", "10.0.0.3"))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, ErrCodeRateLimited)
	}
	if body.Error == "" {
		t.Error("error message should not be empty")
	}
}

func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(testConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newRequestFrom(http.MethodGet, "/", "192.168.1.10"))
	blocked := httptest.NewRecorder()
	handler.ServeHTTP(blocked, newRequestFrom(http.MethodGet, "/", "192.168.1.10"))
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, newRequestFrom(http.MethodGet, "/", "192.168.1.11"))

	if first.Code != http.StatusOK {
		t.Errorf("first status = %d, want 200", first.Code)
	}
	if blocked.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", blocked.Code)
	}
	if other.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", other.Code)
	}
	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", got)
	}
}

func TestUploadRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	rl := NewRateLimiter(testConfig(10, 1))
	defer rl.Stop()

	upload := rl.UploadMiddleware()(okHandler())
	general := rl.GeneralMiddleware()(okHandler())

	w := httptest.NewRecorder()
	upload.ServeHTTP(w, newRequestFrom(http.MethodPost, "/api/profiles/user/1", "10.1.1.1"))
	if w.Code != http.StatusOK {
		t.Fatalf("first upload status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	upload.ServeHTTP(w, newRequestFrom(http.MethodPost, "/api/profiles/user/1", "10.1.1.1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second upload status = %d, want 429", w.Code)
	}

	// アップロード制限に達しても一般リクエストは通る
	w = httptest.NewRecorder()
	general.ServeHTTP(w, newRequestFrom(http.MethodGet, "/api/users", "10.1.1.1"))
	if w.Code != http.StatusOK {
		t.Errorf("general status = %d, want 200", w.Code)
	}
	if got := rl.UploadLimiterCount(); got != 1 {
		t.Errorf("UploadLimiterCount() = %d, want 1", got)
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(testConfig(5, 5))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), newRequestFrom(http.MethodGet, "/", "10.2.0.1"))
	handler.ServeHTTP(httptest.NewRecorder(), newRequestFrom(http.MethodGet, "/", "10.2.0.2"))

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Fatalf("GeneralLimiterCount() = %d, want 2", got)
	}

	// TTL（CleanupIntervalの2倍）を経過したとみなしてクリーンアップ
	rl.cleanup(time.Now().Add(3 * time.Minute))

	if got := rl.GeneralLimiterCount(); got != 0 {
		t.Errorf("GeneralLimiterCount() after cleanup = %d, want 0", got)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testConfig(1, 1))
	rl.Stop()
	rl.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"IPv4", "203.0.113.5:1234", "203.0.113.5"},
		{"IPv6", "[2001:db8::1]:443", "2001:db8::1"},
		{"ポートなし", "203.0.113.9", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(120, 20)

	if cfg.GeneralRate != rate.Limit(2) {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.UploadBurst != 20 {
		t.Errorf("UploadBurst = %d, want 20", cfg.UploadBurst)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}

	def := DefaultRateLimiterConfig()
	if def.GeneralBurst != 120 || def.UploadBurst != 20 {
		t.Errorf("DefaultRateLimiterConfig() bursts = %d/%d, want 120/20", def.GeneralBurst, def.UploadBurst)
	}
}
