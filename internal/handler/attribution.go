package handler

import (
	"net/http"
	"net/url"
	"strings"

	"incorpo/internal/service"

	"github.com/gin-gonic/gin"
)

// AffiliateHeader carries a referral code from clients that cannot use cookies.
const AffiliateHeader = "X-Affiliate-Code"

// TokenFromRequest extracts the attribution token from the request: the
// affiliate cookie first, then the header, then the ?ref= query parameter.
func TokenFromRequest(c *gin.Context, cookieName string) service.AttributionToken {
	if v, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(v) != "" {
		return service.AttributionToken{Code: v, Source: service.SourceCookie}
	}
	if v := strings.TrimSpace(c.GetHeader(AffiliateHeader)); v != "" {
		return service.AttributionToken{Code: v, Source: service.SourceHeader}
	}
	if v := strings.TrimSpace(c.Query("ref")); v != "" {
		return service.AttributionToken{Code: v, Source: service.SourceQuery}
	}
	return service.AttributionToken{}
}

// tokenWithBody prefers a code sent in the request body.
func tokenWithBody(c *gin.Context, cookieName, bodyCode string) service.AttributionToken {
	if strings.TrimSpace(bodyCode) != "" {
		return service.AttributionToken{Code: bodyCode, Source: service.SourceBody}
	}
	return TokenFromRequest(c, cookieName)
}

// setAffiliateCookie writes the attribution cookie for code.
func setAffiliateCookie(c *gin.Context, name, code string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, code, maxAge, "/", "", secure, true)
}

// safeRedirect keeps redirects on this site: only absolute paths without a
// host are accepted, anything else becomes "/".
func safeRedirect(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return u.RequestURI()
}

func actorFrom(c *gin.Context, userID uint) service.Actor {
	return service.Actor{UserID: userID, IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
