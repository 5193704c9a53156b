package handler

import (
	"encoding/json"
	"net/http"

	"incorpo/config"
	"incorpo/internal/service"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie  = "oauth_state"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type GoogleOAuthHandler struct {
	cfg        *config.Config
	authSvc    *service.AuthService
	cookieName string
	log        logger.Logger
	errs       errorResponder
}

func NewGoogleOAuthHandler(cfg *config.Config, authSvc *service.AuthService, log logger.Logger) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		cfg:        cfg,
		authSvc:    authSvc,
		cookieName: cfg.Affiliate.CookieName,
		log:        log,
		errs:       errorResponder{log: log},
	}
}

func (h *GoogleOAuthHandler) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.OAuth.GoogleClientID,
		ClientSecret: h.cfg.OAuth.GoogleClientSecret,
		RedirectURL:  h.cfg.OAuth.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

// Redirect sends the user to the Google consent screen. The state value is
// kept in a short-lived cookie and checked on the callback.
func (h *GoogleOAuthHandler) Redirect(c *gin.Context) {
	if h.cfg.OAuth.GoogleClientID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.cfg.Server.IsProduction(), true)
	c.Redirect(http.StatusFound, h.OAuth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline))
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Callback exchanges the code, fetches the profile and logs the user in. A
// referral cookie present on the callback is remembered for new accounts.
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	if h.cfg.OAuth.GoogleClientID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	ctx := c.Request.Context()
	conf := h.OAuth2Config()
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("google code exchange failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "exchange failed"})
		return
	}
	resp, err := conf.Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get user info"})
		return
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.ID == "" || info.Email == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "invalid user info"})
		return
	}
	u, pair, isNew, err := h.authSvc.LoginWithGoogle(ctx, service.GoogleProfile{
		ID:            info.ID,
		Email:         info.Email,
		Name:          info.Name,
		EmailVerified: info.VerifiedEmail,
	}, TokenFromRequest(c, h.cookieName))
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.cfg.Server.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"new_user":      isNew,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}
