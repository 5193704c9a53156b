package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"incorpo/internal/domain"
	"incorpo/internal/repository"
)

// ReferrerStats is the dashboard summary for one referrer.
type ReferrerStats struct {
	Code             string                   `json:"code"`
	TotalClicks      int64                    `json:"total_clicks"`
	TotalConversions int64                    `json:"total_conversions"`
	ConversionRate   float64                  `json:"conversion_rate"` // percent of clicks, 2 decimals
	ByStatus         []repository.StatusTotal `json:"by_status"`
	Balance          Balance                  `json:"balance"`
}

type StatsService struct {
	links       *LinkService
	clicks      *repository.AffiliateClickRepository
	conversions *ConversionService
	payouts     *PayoutService
}

func NewStatsService(links *LinkService, clicks *repository.AffiliateClickRepository, conversions *ConversionService, payouts *PayoutService) *StatsService {
	return &StatsService{links: links, clicks: clicks, conversions: conversions, payouts: payouts}
}

// ReferrerStats reports zeros for a user who never requested a link.
func (s *StatsService) ReferrerStats(ctx context.Context, userID uint) (*ReferrerStats, error) {
	st := &ReferrerStats{ByStatus: []repository.StatusTotal{}}
	link, err := s.links.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, ErrLinkNotFound) {
		return nil, err
	}
	if link != nil {
		st.Code = link.Code
		clicks, err := s.clicks.CountByLinkID(ctx, link.ID)
		if err != nil {
			return nil, fmt.Errorf("count clicks: %w", err)
		}
		st.TotalClicks = clicks
		totals, err := s.conversions.Totals(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		st.ByStatus = totals
		for _, t := range totals {
			if t.Status != domain.ConversionRejected {
				st.TotalConversions += t.Count
			}
		}
		if clicks > 0 {
			st.ConversionRate = math.Round(float64(st.TotalConversions)/float64(clicks)*10000) / 100
		}
	}
	bal, err := s.payouts.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	st.Balance = bal
	return st, nil
}
