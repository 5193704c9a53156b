package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"

	"gorm.io/gorm"
)

const codeAttempts = 10

// LinkService is the link registry: one referral code per user.
type LinkService struct {
	links   *repository.AffiliateLinkRepository
	log     logger.Logger
	newCode func() (string, error)
}

func NewLinkService(links *repository.AffiliateLinkRepository, log logger.Logger) *LinkService {
	return &LinkService{links: links, log: log, newCode: generateAffiliateCode}
}

// generateAffiliateCode returns an 8-character lowercase hex code.
func generateAffiliateCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetOrCreateLink returns the user's link, creating it on first use. Codes
// are only assumed unique once the insert succeeds: a duplicate key means
// either the code is taken (retry with a new one) or a concurrent request
// already created this user's link (return that one).
func (s *LinkService) GetOrCreateLink(ctx context.Context, userID uint) (*models.AffiliateLink, error) {
	link, err := s.links.GetByUserID(ctx, userID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get affiliate link: %w", err)
	}
	for i := 0; i < codeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate affiliate code: %w", err)
		}
		link = &models.AffiliateLink{UserID: userID, Code: code}
		err = s.links.Create(ctx, link)
		if err == nil {
			s.log.Info("affiliate link created", "user_id", userID, "link_id", link.ID)
			return link, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create affiliate link: %w", err)
		}
		if existing, err := s.links.GetByUserID(ctx, userID); err == nil {
			return existing, nil
		}
		s.log.Debug("affiliate code collision, retrying", "attempt", i+1)
	}
	return nil, ErrCodeExhausted
}

// GetByCode resolves a referral code. Empty or unknown codes yield
// ErrInvalidAffiliateCode.
func (s *LinkService) GetByCode(ctx context.Context, code string) (*models.AffiliateLink, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidAffiliateCode
	}
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidAffiliateCode
		}
		return nil, fmt.Errorf("get affiliate link by code: %w", err)
	}
	return link, nil
}

// GetByUserID returns ErrLinkNotFound when the user never requested a link.
func (s *LinkService) GetByUserID(ctx context.Context, userID uint) (*models.AffiliateLink, error) {
	link, err := s.links.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("get affiliate link: %w", err)
	}
	return link, nil
}

func (s *LinkService) GetByID(ctx context.Context, id uint) (*models.AffiliateLink, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("get affiliate link: %w", err)
	}
	return link, nil
}

func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
