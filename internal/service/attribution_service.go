package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"incorpo/internal/domain"
	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"

	"gorm.io/gorm"
)

// TokenSource is the channel an attribution code arrived on.
type TokenSource string

const (
	SourceCookie TokenSource = "cookie"
	SourceHeader TokenSource = "header"
	SourceQuery  TokenSource = "query"
	SourceBody   TokenSource = "body"
	SourceStored TokenSource = "stored"
)

// AttributionToken is a referral code plus where it came from. The zero
// value means "no attribution".
type AttributionToken struct {
	Code   string
	Source TokenSource
}

func (t AttributionToken) Empty() bool { return NormalizeCode(t.Code) == "" }

// AttributionService decides which link, if any, an order belongs to.
type AttributionService struct {
	links        *LinkService
	attributions *repository.AffiliateAttributionRepository
	settings     *SettingsService
	log          logger.Logger
	now          func() time.Time
}

func NewAttributionService(links *LinkService, attributions *repository.AffiliateAttributionRepository, settings *SettingsService, log logger.Logger) *AttributionService {
	return &AttributionService{links: links, attributions: attributions, settings: settings, log: log, now: time.Now}
}

func (s *AttributionService) Resolve(ctx context.Context, token AttributionToken) (*models.AffiliateLink, error) {
	if token.Empty() {
		return nil, ErrNoAttribution
	}
	return s.links.GetByCode(ctx, token.Code)
}

// Remember associates email with the token's link until the cookie lifetime
// runs out. A later association for the same email replaces the earlier one.
func (s *AttributionService) Remember(ctx context.Context, email string, token AttributionToken) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	link, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	days := s.settings.Snapshot(ctx).CookieDurationDays
	if days <= 0 {
		days = domain.FallbackCookieDurationDays
	}
	expires := s.now().Add(time.Duration(days) * 24 * time.Hour)
	if err := s.attributions.Upsert(ctx, email, link.ID, expires); err != nil {
		return fmt.Errorf("remember attribution: %w", err)
	}
	return nil
}

// ResolveForOrder returns the link to credit for an order placed by buyer,
// or nil. A resolvable request token wins over a stored association. It never fails:
// problems are logged and the order proceeds unattributed.
func (s *AttributionService) ResolveForOrder(ctx context.Context, buyer *models.User, token AttributionToken) *models.AffiliateLink {
	link, err := s.resolveForOrder(ctx, buyer, token)
	if err != nil {
		if !errors.Is(err, ErrNoAttribution) {
			s.log.Warn("attribution skipped", "user_id", buyer.ID, "source", string(token.Source), "error", err)
		}
		return nil
	}
	return link
}

func (s *AttributionService) resolveForOrder(ctx context.Context, buyer *models.User, token AttributionToken) (*models.AffiliateLink, error) {
	var (
		link *models.AffiliateLink
		err  error
	)
	if !token.Empty() {
		link, err = s.Resolve(ctx, token)
	}
	// a stale or unknown code still leaves the remembered association
	if token.Empty() || errors.Is(err, ErrInvalidAffiliateCode) {
		link, err = s.stored(ctx, buyer.Email)
	}
	if err != nil {
		return nil, err
	}
	if link.UserID == buyer.ID {
		return nil, ErrSelfReferral
	}
	return link, nil
}

func (s *AttributionService) stored(ctx context.Context, email string) (*models.AffiliateLink, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNoAttribution
	}
	a, err := s.attributions.GetActiveByEmail(ctx, email, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAttribution
		}
		return nil, fmt.Errorf("load stored attribution: %w", err)
	}
	link, err := s.links.GetByID(ctx, a.LinkID)
	if err != nil {
		return nil, fmt.Errorf("load attributed link: %w", err)
	}
	return link, nil
}
