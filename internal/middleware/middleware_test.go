package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/walter2161/grupo-de-agentes/internal/identity"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
	"github.com/walter2161/grupo-de-agentes/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_AllowAndDeny(t *testing.T) {
	clock := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiterWithNow(2, time.Minute, func() time.Time { return clock })

	if !rl.Allow("ip") || !rl.Allow("ip") {
		t.Fatalf("expected first two requests to pass")
	}
	if rl.Allow("ip") {
		t.Fatalf("expected deny")
	}
	if !rl.Allow("other") {
		t.Fatalf("limits are per key")
	}

	clock = clock.Add(time.Minute + time.Second)
	if !rl.Allow("ip") {
		t.Fatalf("expected allow after window")
	}
}

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !rl.Allow("ip") {
			t.Fatalf("limit 0 should never deny")
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimiter(1, time.Minute)))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestRequireAuth(t *testing.T) {
	ctx := context.Background()
	reg := testutil.NewMemoryRegistry(0)
	issuer, err := identity.NewTokenIssuer("secret", "test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	provider := identity.NewProvider(identity.Options{
		Users:    identity.NewKVUserDirectory(storage.NewMemoryKV(0)),
		Registry: reg,
		Issuer:   issuer,
	})
	res, err := provider.Register(ctx, identity.NewSession(), "ana@x.com", "Ana", "segredo1")
	if err != nil || !res.Success {
		t.Fatalf("Register() = %+v, %v", res, err)
	}

	r := gin.New()
	r.Use(RequireAuth(provider))
	r.GET("/me", func(c *gin.Context) {
		id, _ := GetUserID(c)
		user, _ := GetCurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "name": user.Name})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + res.Token, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
