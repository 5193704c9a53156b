package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"incorpo/internal/domain"
	"incorpo/internal/metrics"
	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"

	"gorm.io/gorm"
)

// ConversionFilter selects conversions for the admin listing. An empty
// Status means all statuses.
type ConversionFilter struct {
	Status string
	Page   int
	Limit  int
}

// StatusChange is an admin request to move a conversion to Status. When
// ExpectedVersion is nil the version read just before the update is used.
type StatusChange struct {
	ConversionID    uint
	Status          string
	ExpectedVersion *int
	Actor           Actor
}

type ConversionService struct {
	conversions *repository.AffiliateConversionRepository
	links       *LinkService
	settings    *SettingsService
	audit       *repository.AuditLogRepository
	notifier    Notifier
	publisher   EventPublisher
	metrics     *metrics.Metrics
	log         logger.Logger

	// legacyApproveAlias stores an APPROVED request as PENDING.
	legacyApproveAlias bool
}

func NewConversionService(
	conversions *repository.AffiliateConversionRepository,
	links *LinkService,
	settings *SettingsService,
	audit *repository.AuditLogRepository,
	notifier Notifier,
	publisher EventPublisher,
	m *metrics.Metrics,
	log logger.Logger,
	legacyApproveAlias bool,
) *ConversionService {
	return &ConversionService{
		conversions:        conversions,
		links:              links,
		settings:           settings,
		audit:              audit,
		notifier:           notifier,
		publisher:          publisher,
		metrics:            m,
		log:                log,
		legacyApproveAlias: legacyApproveAlias,
	}
}

// CreateConversion records a PENDING conversion for orderID under link. The
// commission rate is read now and stored with the row.
func (s *ConversionService) CreateConversion(ctx context.Context, link *models.AffiliateLink, orderID uint, amountCents int64, source string) (*models.AffiliateConversion, error) {
	conv, err := s.prepare(ctx, link, orderID, amountCents, source)
	if err != nil {
		return nil, err
	}
	if err := s.conversions.Create(ctx, conv); err != nil {
		return nil, createError(err)
	}
	s.created(ctx, link, conv)
	return conv, nil
}

// prepare builds an unsaved PENDING conversion with the current rate.
// Callers that store it inside their own transaction call created after
// the commit.
func (s *ConversionService) prepare(ctx context.Context, link *models.AffiliateLink, orderID uint, amountCents int64, source string) (*models.AffiliateConversion, error) {
	if amountCents < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}
	if source == "" {
		source = domain.ConversionSourceCheckout
	}
	rate := s.settings.Snapshot(ctx).CommissionRate
	return &models.AffiliateConversion{
		LinkID:          link.ID,
		OrderID:         orderID,
		AmountCents:     amountCents,
		CommissionCents: domain.Commission(amountCents, rate),
		CommissionRate:  rate,
		Status:          domain.ConversionPending,
		Source:          source,
		Version:         1,
	}, nil
}

func createError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConversionExists
	}
	return fmt.Errorf("create conversion: %w", err)
}

// created runs the side effects of a stored conversion.
func (s *ConversionService) created(ctx context.Context, link *models.AffiliateLink, conv *models.AffiliateConversion) {
	s.metrics.ConversionCreated(conv.Source, conv.CommissionCents)
	s.log.Info("affiliate conversion created",
		"conversion_id", conv.ID, "link_id", link.ID, "order_id", conv.OrderID,
		"commission_cents", conv.CommissionCents, "source", conv.Source)

	data := map[string]interface{}{
		"conversion_id":    conv.ID,
		"order_id":         conv.OrderID,
		"commission_cents": conv.CommissionCents,
		"status":           conv.Status,
	}
	notify(ctx, s.notifier, s.log, link.UserID, domain.NotificationConversionNew,
		"New referral conversion",
		fmt.Sprintf("You earned a pending commission of $%s.", domain.FormatCents(conv.CommissionCents)),
		data)
	publish(s.publisher, link.UserID, domain.EventConversionCreated, conv)
}

func (s *ConversionService) ListConversions(ctx context.Context, f ConversionFilter) ([]models.AffiliateConversion, int64, error) {
	status := strings.ToUpper(strings.TrimSpace(f.Status))
	if status != "" && !domain.IsConversionStatus(status) {
		return nil, 0, fmt.Errorf("%w: %w", ErrValidation, ErrInvalidStatus)
	}
	list, total, err := s.conversions.List(ctx, status, f.Page, f.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversions: %w", err)
	}
	return list, total, nil
}

// ListForReferrer returns the user's own conversions oldest first. A user
// without a link gets an empty list.
func (s *ConversionService) ListForReferrer(ctx context.Context, userID uint, page, limit int) ([]models.AffiliateConversion, int64, error) {
	link, err := s.links.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return []models.AffiliateConversion{}, 0, nil
		}
		return nil, 0, err
	}
	list, total, err := s.conversions.ListByLinkIDAsc(ctx, link.ID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list referrer conversions: %w", err)
	}
	return list, total, nil
}

func (s *ConversionService) GetByID(ctx context.Context, id uint) (*models.AffiliateConversion, error) {
	conv, err := s.conversions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversionNotFound
		}
		return nil, fmt.Errorf("get conversion: %w", err)
	}
	return conv, nil
}

func (s *ConversionService) ExistsForOrder(ctx context.Context, orderID uint) (bool, error) {
	return s.conversions.ExistsForOrder(ctx, orderID)
}

// SetStatus moves a conversion to a new status. Requests for the current
// status succeed without writing. The update is conditional on the row
// version so two admins cannot silently overwrite each other.
func (s *ConversionService) SetStatus(ctx context.Context, ch StatusChange) (*models.AffiliateConversion, error) {
	status := strings.ToUpper(strings.TrimSpace(ch.Status))
	if status == "" {
		return nil, ErrStatusRequired
	}
	if !domain.IsConversionStatus(status) {
		return nil, ErrInvalidStatus
	}
	conv, err := s.GetByID(ctx, ch.ConversionID)
	if err != nil {
		return nil, err
	}

	target := status
	if s.legacyApproveAlias && target == domain.ConversionApproved {
		target = domain.ConversionPending
	}
	if target == conv.Status {
		return conv, nil
	}
	if !domain.CanTransition(conv.Status, target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, conv.Status, target)
	}

	version := conv.Version
	if ch.ExpectedVersion != nil {
		version = *ch.ExpectedVersion
	}
	n, err := s.conversions.UpdateStatus(ctx, conv.ID, version, target)
	if err != nil {
		return nil, fmt.Errorf("update conversion status: %w", err)
	}
	if n == 0 {
		return nil, ErrConcurrentUpdate
	}
	previous := conv.Status
	updated, err := s.GetByID(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.ConversionStatusChanged(target)
	s.log.Info("affiliate conversion status changed",
		"conversion_id", conv.ID, "from", previous, "to", target, "admin_id", ch.Actor.UserID)
	writeAudit(ctx, s.audit, s.log, ch.Actor, "affiliate.conversion.status", "affiliate_conversion",
		strconv.FormatUint(uint64(conv.ID), 10),
		map[string]interface{}{"from": previous, "to": target, "requested": status})

	if updated.Link != nil {
		notify(ctx, s.notifier, s.log, updated.Link.UserID, domain.NotificationConversionStatus,
			"Commission "+strings.ToLower(target),
			fmt.Sprintf("Your $%s commission for order #%d is now %s.",
				domain.FormatCents(updated.CommissionCents), updated.OrderID, strings.ToLower(target)),
			map[string]interface{}{"conversion_id": updated.ID, "status": target})
		publish(s.publisher, updated.Link.UserID, domain.EventConversionStatusChanged, updated)
	}
	return updated, nil
}

// Totals groups the link's conversions by status.
func (s *ConversionService) Totals(ctx context.Context, linkID uint) ([]repository.StatusTotal, error) {
	totals, err := s.conversions.TotalsByLinkID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("conversion totals: %w", err)
	}
	return totals, nil
}
