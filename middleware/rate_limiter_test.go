package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func doRequest(handler http.Handler, method, path, ip string) int {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Forwarded-For", ip)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Code
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitProofWritesTighterThanReads(t *testing.T) {
	limited := RateLimitMiddleware(okHandler())
	ip := "10.0.0.1"

	// The write bucket holds 5 tokens; the sixth burst submission is rejected.
	path := "/api/v1/challenges/abc/submissions"
	for i := 0; i < 5; i++ {
		if code := doRequest(limited, http.MethodPost, path, ip); code != http.StatusOK {
			t.Fatalf("submission %d = %d, want 200", i+1, code)
		}
	}
	if code := doRequest(limited, http.MethodPost, path, ip); code != http.StatusTooManyRequests {
		t.Errorf("sixth burst submission = %d, want 429", code)
	}

	// Reads from the same IP draw from the larger general bucket and still pass.
	if code := doRequest(limited, http.MethodGet, path, ip); code != http.StatusOK {
		t.Errorf("read after write exhaustion = %d, want 200", code)
	}
}

func TestRateLimitGeneralBucket(t *testing.T) {
	limited := RateLimitMiddleware(okHandler())
	ip := "10.0.0.2"

	for i := 0; i < 30; i++ {
		if code := doRequest(limited, http.MethodGet, "/api/v1/challenges", ip); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, code)
		}
	}
	if code := doRequest(limited, http.MethodGet, "/api/v1/challenges", ip); code != http.StatusTooManyRequests {
		t.Errorf("burst overflow = %d, want 429", code)
	}
}

func TestRateLimitIsolatesIPs(t *testing.T) {
	limited := RateLimitMiddleware(okHandler())
	path := "/api/v1/challenges/abc/submissions"

	for i := 0; i < 6; i++ {
		doRequest(limited, http.MethodPost, path, "10.0.0.3")
	}
	if code := doRequest(limited, http.MethodPost, path, "10.0.0.4"); code != http.StatusOK {
		t.Errorf("fresh IP = %d, want 200", code)
	}
}
