package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"incorpo/internal/auth"
	"incorpo/internal/service"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrConversionNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", service.ErrPayoutNotFound), http.StatusNotFound},
		{service.ErrInvalidAffiliateCode, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", service.ErrValidation, service.ErrInvalidStatus), http.StatusBadRequest},
		{service.ErrInsufficientBalance, http.StatusBadRequest},
		{fmt.Errorf("%w: PAID -> PENDING", service.ErrInvalidTransition), http.StatusConflict},
		{service.ErrConcurrentUpdate, http.StatusConflict},
		{service.ErrConversionExists, http.StatusConflict},
		{service.ErrInvoicePaid, http.StatusConflict},
		{service.ErrInvoiceNotPaid, http.StatusConflict},
		{service.ErrUnverifiedEmail, http.StatusForbidden},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{service.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestErrorResponderDetail(t *testing.T) {
	boom := errors.New("deadlock found")

	c, w := testContext("/")
	errorResponder{log: logger.Nop(), withDetail: true}.respond(c, boom)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error","detail":"deadlock found"}`, w.Body.String())

	c, w = testContext("/")
	errorResponder{log: logger.Nop()}.respond(c, boom)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	c, w = testContext("/")
	errorResponder{log: logger.Nop(), withDetail: true}.respond(c, service.ErrPayoutNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "detail")
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"/pricing":              "/pricing",
		"/pricing?plan=pro":     "/pricing?plan=pro",
		"  /signup ":            "/signup",
		"pricing":               "/",
		"https://evil.example/": "/",
		"//evil.example":        "/",
		"/\\evil.example":       "/",
		"javascript:alert(1)":   "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeRedirect(in), in)
	}
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("cookie wins", func(t *testing.T) {
		c, _ := testContext("/?ref=query")
		c.Request.AddCookie(&http.Cookie{Name: "affiliate", Value: "cookie"})
		c.Request.Header.Set(AffiliateHeader, "header")
		assert.Equal(t, service.AttributionToken{Code: "cookie", Source: service.SourceCookie}, TokenFromRequest(c, "affiliate"))
	})
	t.Run("header before query", func(t *testing.T) {
		c, _ := testContext("/?ref=query")
		c.Request.Header.Set(AffiliateHeader, "header")
		assert.Equal(t, service.SourceHeader, TokenFromRequest(c, "affiliate").Source)
	})
	t.Run("query", func(t *testing.T) {
		c, _ := testContext("/?ref=query")
		assert.Equal(t, service.AttributionToken{Code: "query", Source: service.SourceQuery}, TokenFromRequest(c, "affiliate"))
	})
	t.Run("none", func(t *testing.T) {
		c, _ := testContext("/")
		assert.True(t, TokenFromRequest(c, "affiliate").Empty())
	})
	t.Run("body overrides", func(t *testing.T) {
		c, _ := testContext("/?ref=query")
		assert.Equal(t, service.SourceBody, tokenWithBody(c, "affiliate", "abc").Source)
		assert.Equal(t, service.SourceQuery, tokenWithBody(c, "affiliate", " ").Source)
	})
}

func TestParsePagination(t *testing.T) {
	for target, want := range map[string][2]int{
		"/":                  {1, 20},
		"/?page=3&limit=50":  {3, 50},
		"/?page=0&limit=500": {1, 20},
		"/?page=x&limit=-1":  {1, 20},
	} {
		c, _ := testContext(target)
		page, limit := parsePagination(c)
		assert.Equal(t, want, [2]int{page, limit}, target)
	}
}

func TestListResponse(t *testing.T) {
	b, err := json.Marshal(listResponse([]int{1, 2}, 2, 20, 41))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1,2],"pagination":{"page":2,"limit":20,"total":41,"total_pages":3}}`, string(b))
}
