package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"incorpo/config"
	"incorpo/internal/auth"
	"incorpo/internal/domain"
	"incorpo/internal/metrics"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var jwtCfg = &config.JWTConfig{
	AccessSecret:  "access",
	RefreshSecret: "refresh",
	AccessExpiry:  time.Minute,
	RefreshExpiry: time.Hour,
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/x", AuthRequired(jwtCfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})
	token, err := auth.GenerateAccessToken(jwtCfg, 7, "u@example.com", domain.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(r, tt.header).Code)
		})
	}
	assert.JSONEq(t, `{"user_id":7,"role":"USER"}`, serve(r, "Bearer "+token).Body.String())
}

func TestAdminRequired(t *testing.T) {
	r := gin.New()
	r.GET("/x", AuthRequired(jwtCfg), AdminRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	user, _ := auth.GenerateAccessToken(jwtCfg, 1, "u@example.com", domain.RoleUser)
	admin, _ := auth.GenerateAccessToken(jwtCfg, 2, "a@example.com", domain.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+user).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer "+admin).Code)
}

func TestRateLimiterWindow(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	defer l.Close()
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewInMemoryRateLimiter(1, time.Minute)
	defer l.Close()
	r := gin.New()
	r.GET("/x", RateLimit(l), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "").Code)
	w := serve(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimitOrFallsBack(t *testing.T) {
	l := NewInMemoryRateLimiter(1, time.Minute)
	defer l.Close()
	var handled int
	r := gin.New()
	r.GET("/x",
		RateLimitOr(l, func(c *gin.Context) { c.Redirect(http.StatusFound, "/fallback") }),
		func(c *gin.Context) {
			handled++
			c.Redirect(http.StatusFound, "/counted")
		})

	w := serve(r, "")
	assert.Equal(t, "/counted", w.Header().Get("Location"))
	w = serve(r, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/fallback", w.Header().Get("Location"))
	assert.Equal(t, 1, handled)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m), SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	serve(r, "")
	assert.Equal(t, 2.0, promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/x", "200")))
}
