package service

import (
	"context"
	"errors"
	"fmt"

	"incorpo/internal/domain"
	"incorpo/internal/metrics"
	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"
)

// ClickInput describes one visit through a referral link.
type ClickInput struct {
	Code        string
	IPAddress   string
	UserAgent   string
	Referrer    string
	LandingPath string
}

type ClickService struct {
	links     *LinkService
	clicks    *repository.AffiliateClickRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       logger.Logger
}

func NewClickService(links *LinkService, clicks *repository.AffiliateClickRepository, publisher EventPublisher, m *metrics.Metrics, log logger.Logger) *ClickService {
	return &ClickService{links: links, clicks: clicks, publisher: publisher, metrics: m, log: log}
}

// RecordClick stores a click against the link owning in.Code. Unknown codes
// return ErrInvalidAffiliateCode and write nothing.
func (s *ClickService) RecordClick(ctx context.Context, in ClickInput) (*models.AffiliateClick, *models.AffiliateLink, error) {
	link, err := s.links.GetByCode(ctx, in.Code)
	if err != nil {
		s.metrics.ClickRejected()
		return nil, nil, err
	}
	click := &models.AffiliateClick{
		LinkID:      link.ID,
		IPAddress:   truncate(in.IPAddress, 64),
		UserAgent:   truncate(in.UserAgent, 1024),
		Referrer:    truncate(in.Referrer, 1024),
		LandingPath: truncate(in.LandingPath, 512),
	}
	if err := s.clicks.Create(ctx, click); err != nil {
		return nil, link, fmt.Errorf("record click: %w", err)
	}
	s.metrics.ClickRecorded()
	publish(s.publisher, link.UserID, domain.EventClickRecorded, map[string]interface{}{
		"click_id":   click.ID,
		"referrer":   click.Referrer,
		"created_at": click.CreatedAt,
	})
	return click, link, nil
}

// ListForUser returns the clicks on the user's link, newest first. A user
// without a link has no clicks.
func (s *ClickService) ListForUser(ctx context.Context, userID uint, page, limit int) ([]models.AffiliateClick, int64, error) {
	link, err := s.links.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return []models.AffiliateClick{}, 0, nil
		}
		return nil, 0, err
	}
	return s.clicks.ListByLinkID(ctx, link.ID, page, limit)
}
