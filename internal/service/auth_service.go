package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"incorpo/config"
	"incorpo/internal/auth"
	"incorpo/internal/domain"
	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type AuthService struct {
	cfg         *config.Config
	userRepo    *repository.UserRepository
	attribution *AttributionService
	audit       *repository.AuditLogRepository
	log         logger.Logger
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, attribution *AttributionService, audit *repository.AuditLogRepository, log logger.Logger) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, attribution: attribution, audit: audit, log: log}
}

// Register creates a USER account. When the signup carried a referral code
// the email is associated with that link so a later order is attributed
// even without the cookie.
func (s *AuthService) Register(ctx context.Context, email, username, password string, token AttributionToken, actor Actor) (*models.User, auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, auth.TokenPair{}, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if username == "" {
		username = strings.Split(email, "@")[0]
	}
	if len(password) < minPasswordLength {
		return nil, auth.TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, auth.TokenPair{}, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, err
	}
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, auth.TokenPair{}, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, auth.TokenPair{}, ErrEmailExists
		}
		return nil, auth.TokenPair{}, err
	}
	s.remember(ctx, u.Email, token)

	actor.UserID = u.ID
	writeAudit(ctx, s.audit, s.log, actor, "auth.register", "user", fmt.Sprint(u.ID), nil)
	pair, err := auth.IssuePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	return u, pair, err
}

func (s *AuthService) remember(ctx context.Context, email string, token AttributionToken) {
	if s.attribution == nil || token.Empty() {
		return
	}
	if err := s.attribution.Remember(ctx, email, token); err != nil {
		s.log.Warn("attribution not remembered", "source", string(token.Source), "error", err)
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, auth.TokenPair, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.TokenPair{}, ErrInvalidCreds
		}
		return nil, auth.TokenPair{}, err
	}
	if u.PasswordHash == "" {
		return nil, auth.TokenPair{}, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, auth.TokenPair{}, ErrInvalidCreds
	}
	pair, err := auth.IssuePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	return u, pair, err
}

// GoogleProfile is the userinfo returned for a Google login.
type GoogleProfile struct {
	ID            string
	Email         string
	Name          string
	EmailVerified bool
}

// LoginWithGoogle finds the user by Google ID, links Google to an existing
// email account, or creates a new USER. The bool reports a new account. A
// profile with an unverified email can only sign in to an account it is
// already linked to.
func (s *AuthService) LoginWithGoogle(ctx context.Context, p GoogleProfile, token AttributionToken) (*models.User, auth.TokenPair, bool, error) {
	u, err := s.userRepo.GetByGoogleID(ctx, p.ID)
	if err == nil {
		pair, err := auth.IssuePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
		return u, pair, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, false, err
	}
	if !p.EmailVerified {
		return nil, auth.TokenPair{}, false, ErrUnverifiedEmail
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	name := p.Name
	gid := p.ID
	existing, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		existing.GoogleID = &gid
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, auth.TokenPair{}, false, err
		}
		pair, err := auth.IssuePair(&s.cfg.JWT, existing.ID, existing.Email, existing.Role)
		return existing, pair, false, err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, auth.TokenPair{}, false, fmt.Errorf("look up google email: %w", err)
	}

	username := strings.Split(email, "@")[0]
	if name != "" {
		username = strings.ReplaceAll(strings.ToLower(name), " ", "_")
	}
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil || username == "" {
		username = fmt.Sprintf("%s%d", username, time.Now().UnixNano()%100000)
	}
	u = &models.User{
		Email:    email,
		Username: truncate(username, 64),
		GoogleID: &gid,
		Role:     domain.RoleUser,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, auth.TokenPair{}, false, err
	}
	s.remember(ctx, u.Email, token)
	pair, err := auth.IssuePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	return u, pair, true, err
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, auth.ErrInvalidToken
		}
		return auth.TokenPair{}, err
	}
	return auth.IssuePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
