package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"incorpo/internal/domain"
	"incorpo/internal/metrics"
	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/cloudinary"
	"incorpo/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PayoutFilter struct {
	Status string
	Page   int
	Limit  int
}

// PayoutRequest is a manual payout recorded by an admin.
type PayoutRequest struct {
	UserID      uint
	AmountCents int64
	Method      string
	Notes       string
}

// Balance summarises what a referrer has earned and been paid, in cents.
type Balance struct {
	EarnedCents    int64 `json:"earned_cents"`
	PaidOutCents   int64 `json:"paid_out_cents"`
	AvailableCents int64 `json:"available_cents"`
}

type PayoutService struct {
	payouts     *repository.AffiliatePayoutRepository
	users       *repository.UserRepository
	links       *LinkService
	conversions *ConversionService
	settings    *SettingsService
	audit       *repository.AuditLogRepository
	uploader    cloudinary.Client
	folder      string
	notifier    Notifier
	publisher   EventPublisher
	metrics     *metrics.Metrics
	log         logger.Logger

	legacyApproveAlias bool
}

func NewPayoutService(
	payouts *repository.AffiliatePayoutRepository,
	users *repository.UserRepository,
	links *LinkService,
	conversions *ConversionService,
	settings *SettingsService,
	audit *repository.AuditLogRepository,
	uploader cloudinary.Client,
	folder string,
	notifier Notifier,
	publisher EventPublisher,
	m *metrics.Metrics,
	log logger.Logger,
	legacyApproveAlias bool,
) *PayoutService {
	return &PayoutService{
		payouts:            payouts,
		users:              users,
		links:              links,
		conversions:        conversions,
		settings:           settings,
		audit:              audit,
		uploader:           uploader,
		folder:             folder,
		notifier:           notifier,
		publisher:          publisher,
		metrics:            m,
		log:                log,
		legacyApproveAlias: legacyApproveAlias,
	}
}

func (s *PayoutService) ListPayouts(ctx context.Context, f PayoutFilter) ([]models.AffiliatePayout, int64, error) {
	status := strings.ToUpper(strings.TrimSpace(f.Status))
	if status != "" && !domain.IsPayoutStatus(status) {
		return nil, 0, fmt.Errorf("%w: %w", ErrValidation, ErrInvalidStatus)
	}
	list, total, err := s.payouts.List(ctx, status, f.Page, f.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list payouts: %w", err)
	}
	return list, total, nil
}

func (s *PayoutService) ListForUser(ctx context.Context, userID uint, page, limit int) ([]models.AffiliatePayout, int64, error) {
	list, total, err := s.payouts.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list user payouts: %w", err)
	}
	return list, total, nil
}

// AcknowledgePayout marks the caller's payout as seen. A payout that does
// not exist, belongs to someone else or was already acknowledged yields
// ErrPayoutNotFound, so only the first call succeeds.
func (s *PayoutService) AcknowledgePayout(ctx context.Context, payoutID, callerID uint) error {
	n, err := s.payouts.Acknowledge(ctx, payoutID, callerID)
	if err != nil {
		return fmt.Errorf("acknowledge payout: %w", err)
	}
	if n == 0 {
		return ErrPayoutNotFound
	}
	s.metrics.PayoutAcknowledged()
	publish(s.publisher, callerID, domain.EventPayoutUpdated, map[string]interface{}{
		"payout_id": payoutID,
		"processed": true,
	})
	return nil
}

// Balance is commission on eligible conversions minus payouts that are
// pending or completed.
func (s *PayoutService) Balance(ctx context.Context, userID uint) (Balance, error) {
	var b Balance
	link, err := s.links.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, ErrLinkNotFound) {
		return b, err
	}
	if link != nil {
		totals, err := s.conversions.Totals(ctx, link.ID)
		if err != nil {
			return b, err
		}
		for _, t := range totals {
			if s.eligible(t.Status) {
				b.EarnedCents += t.CommissionCents
			}
		}
	}
	paid, err := s.payouts.SumByUser(ctx, userID, domain.PayoutPending, domain.PayoutCompleted)
	if err != nil {
		return b, fmt.Errorf("sum payouts: %w", err)
	}
	b.PaidOutCents = paid
	b.AvailableCents = b.EarnedCents - b.PaidOutCents
	return b, nil
}

func (s *PayoutService) eligible(status string) bool {
	switch status {
	case domain.ConversionApproved, domain.ConversionPaid:
		return true
	case domain.ConversionPending:
		// with the alias on, approved conversions are stored as PENDING
		return s.legacyApproveAlias
	}
	return false
}

func (s *PayoutService) RecordPayout(ctx context.Context, req PayoutRequest, actor Actor) (*models.AffiliatePayout, error) {
	method := strings.TrimSpace(req.Method)
	if method == "" {
		return nil, fmt.Errorf("%w: method is required", ErrValidation)
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get payout user: %w", err)
	}
	if minPayout := s.settings.Snapshot(ctx).MinPayoutCents; req.AmountCents < minPayout {
		return nil, fmt.Errorf("%w: minimum is $%s", ErrBelowMinPayout, domain.FormatCents(minPayout))
	}
	bal, err := s.Balance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.AmountCents > bal.AvailableCents {
		return nil, fmt.Errorf("%w: available $%s", ErrInsufficientBalance, domain.FormatCents(bal.AvailableCents))
	}

	p := &models.AffiliatePayout{
		UserID:      req.UserID,
		AmountCents: req.AmountCents,
		Method:      truncate(method, 50),
		Status:      domain.PayoutPending,
		Notes:       req.Notes,
	}
	if err := s.payouts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payout: %w", err)
	}
	s.metrics.PayoutRecorded()
	s.log.Info("affiliate payout recorded", "payout_id", p.ID, "user_id", p.UserID, "amount_cents", p.AmountCents, "admin_id", actor.UserID)
	writeAudit(ctx, s.audit, s.log, actor, "affiliate.payout.create", "affiliate_payout",
		strconv.FormatUint(uint64(p.ID), 10),
		map[string]interface{}{"user_id": p.UserID, "amount_cents": p.AmountCents, "method": p.Method})
	notify(ctx, s.notifier, s.log, p.UserID, domain.NotificationPayoutCreated,
		"Payout on its way",
		fmt.Sprintf("A payout of $%s via %s has been recorded.", domain.FormatCents(p.AmountCents), p.Method),
		map[string]interface{}{"payout_id": p.ID})
	publish(s.publisher, p.UserID, domain.EventPayoutUpdated, p)
	return p, nil
}

func (s *PayoutService) UpdatePayoutStatus(ctx context.Context, id uint, status, adminNotes string, actor Actor) (*models.AffiliatePayout, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		return nil, ErrStatusRequired
	}
	if !domain.IsPayoutStatus(status) {
		return nil, ErrInvalidStatus
	}
	n, err := s.payouts.UpdateStatus(ctx, id, status, adminNotes)
	if err != nil {
		return nil, fmt.Errorf("update payout status: %w", err)
	}
	if n == 0 {
		return nil, ErrPayoutNotFound
	}
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	writeAudit(ctx, s.audit, s.log, actor, "affiliate.payout.status", "affiliate_payout",
		strconv.FormatUint(uint64(id), 10),
		map[string]interface{}{"status": status})
	notify(ctx, s.notifier, s.log, p.UserID, domain.NotificationPayoutStatus,
		"Payout "+strings.ToLower(status),
		fmt.Sprintf("Your $%s payout is now %s.", domain.FormatCents(p.AmountCents), strings.ToLower(status)),
		map[string]interface{}{"payout_id": p.ID, "status": status})
	publish(s.publisher, p.UserID, domain.EventPayoutUpdated, p)
	return p, nil
}

// AttachReceipt uploads a proof-of-payment file and stores its URL on the payout.
func (s *PayoutService) AttachReceipt(ctx context.Context, id uint, file io.Reader, actor Actor) (*models.AffiliatePayout, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: receipt storage", ErrUnavailable)
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	publicID := fmt.Sprintf("payout-%d-%s", id, uuid.New().String()[:8])
	url, err := s.uploader.UploadReceipt(ctx, file, s.folder, publicID)
	if err != nil {
		return nil, fmt.Errorf("upload receipt: %w", err)
	}
	if err := s.payouts.SetReceiptURL(ctx, id, url); err != nil {
		return nil, fmt.Errorf("save receipt url: %w", err)
	}
	writeAudit(ctx, s.audit, s.log, actor, "affiliate.payout.receipt", "affiliate_payout",
		strconv.FormatUint(uint64(id), 10), map[string]interface{}{"receipt_url": url})
	return s.get(ctx, id)
}

func (s *PayoutService) get(ctx context.Context, id uint) (*models.AffiliatePayout, error) {
	p, err := s.payouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("get payout: %w", err)
	}
	return p, nil
}
