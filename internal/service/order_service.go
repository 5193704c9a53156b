package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"incorpo/internal/domain"
	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckoutInput is an order placed by the caller. The amount is only a
// claim until payment is confirmed.
type CheckoutInput struct {
	AmountCents int64
	Currency    string
	Description string
}

// OrderService creates invoices and ties them into the affiliate pipeline.
type OrderService struct {
	invoices    *repository.InvoiceRepository
	attribution *AttributionService
	links       *LinkService
	conversions *ConversionService
	audit       *repository.AuditLogRepository
	log         logger.Logger
}

func NewOrderService(invoices *repository.InvoiceRepository, attribution *AttributionService, links *LinkService, conversions *ConversionService, audit *repository.AuditLogRepository, log logger.Logger) *OrderService {
	return &OrderService{
		invoices:    invoices,
		attribution: attribution,
		links:       links,
		conversions: conversions,
		audit:       audit,
		log:         log,
	}
}

// Checkout stores a PENDING invoice for buyer and binds it to the referring
// link when the order can be attributed. No commission exists until the
// payment is confirmed. Attribution problems never fail the checkout.
func (s *OrderService) Checkout(ctx context.Context, buyer *models.User, in CheckoutInput, token AttributionToken) (*models.Invoice, error) {
	if in.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	}
	inv := &models.Invoice{
		UserID:      buyer.ID,
		Number:      uuid.New().String(),
		AmountCents: in.AmountCents,
		Currency:    currency,
		Description: truncate(in.Description, 255),
		Status:      domain.InvoiceStatusPending,
	}
	if link := s.attribution.ResolveForOrder(ctx, buyer, token); link != nil {
		linkID := link.ID
		inv.AffiliateLinkID = &linkID
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// ConfirmPayment marks a PENDING invoice PAID. An invoice bound to a link
// gets its conversion in the same write, so a paid attributed order always
// has exactly one.
func (s *OrderService) ConfirmPayment(ctx context.Context, invoiceID uint, actor Actor) (*models.Invoice, *models.AffiliateConversion, error) {
	inv, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv.Status == domain.InvoiceStatusPaid {
		return nil, nil, ErrInvoicePaid
	}

	var (
		link *models.AffiliateLink
		conv *models.AffiliateConversion
	)
	if inv.AffiliateLinkID != nil {
		link, err = s.links.GetByID(ctx, *inv.AffiliateLinkID)
		if err != nil {
			return nil, nil, fmt.Errorf("load invoice link: %w", err)
		}
		conv, err = s.conversions.prepare(ctx, link, inv.ID, inv.AmountCents, domain.ConversionSourceCheckout)
		if err != nil {
			return nil, nil, err
		}
	}
	paid, err := s.invoices.MarkPaid(ctx, inv.ID, conv)
	if err != nil {
		return nil, nil, createError(err)
	}
	if !paid {
		return nil, nil, ErrInvoicePaid
	}
	inv.Status = domain.InvoiceStatusPaid
	if conv != nil {
		s.conversions.created(ctx, link, conv)
	}

	meta := map[string]interface{}{"amount_cents": inv.AmountCents}
	if conv != nil {
		meta["conversion_id"] = conv.ID
	}
	writeAudit(ctx, s.audit, s.log, actor, "invoice.payment.confirm", "invoice",
		strconv.FormatUint(uint64(inv.ID), 10), meta)
	return inv, conv, nil
}

// ForceConversion attributes a paid invoice to the link behind code after
// the fact. It is the admin's fix for orders that lost their cookie.
func (s *OrderService) ForceConversion(ctx context.Context, invoiceID uint, code string, actor Actor) (*models.AffiliateConversion, error) {
	inv, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidAffiliateCode) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	exists, err := s.conversions.ExistsForOrder(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing conversion: %w", err)
	}
	if exists {
		return nil, ErrConversionExists
	}
	if inv.Status != domain.InvoiceStatusPaid {
		return nil, ErrInvoiceNotPaid
	}
	conv, err := s.conversions.prepare(ctx, link, inv.ID, inv.AmountCents, domain.ConversionSourceForced)
	if err != nil {
		return nil, err
	}
	if err := s.invoices.AttachConversion(ctx, inv.ID, conv); err != nil {
		return nil, createError(err)
	}
	s.conversions.created(ctx, link, conv)

	writeAudit(ctx, s.audit, s.log, actor, "affiliate.conversion.force", "invoice",
		strconv.FormatUint(uint64(inv.ID), 10),
		map[string]interface{}{"link_id": link.ID, "conversion_id": conv.ID})
	return conv, nil
}

func (s *OrderService) getInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID uint, page, limit int) ([]models.Invoice, int64, error) {
	return s.invoices.ListByUserID(ctx, userID, page, limit)
}
