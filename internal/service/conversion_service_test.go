package service

import (
	"context"
	"testing"

	"incorpo/internal/domain"
	"incorpo/internal/models"
	"incorpo/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedConversion creates a referrer, a buyer invoice and a PENDING conversion.
func seedConversion(t *testing.T, e *env, amountCents int64) (*models.AffiliateLink, *models.AffiliateConversion) {
	t.Helper()
	ctx := context.Background()
	ref := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)
	buyer := testutil.CreateUser(t, e.db, "buyer@example.com", domain.RoleUser)
	link, err := e.links.GetOrCreateLink(ctx, ref.ID)
	require.NoError(t, err)
	_, conv := paidCheckout(t, e, buyer, amountCents, AttributionToken{Code: link.Code, Source: SourceCookie})
	require.NotNil(t, conv)
	return link, conv
}

// paidCheckout places an order for buyer and confirms its payment.
func paidCheckout(t *testing.T, e *env, buyer *models.User, amountCents int64, token AttributionToken) (*models.Invoice, *models.AffiliateConversion) {
	t.Helper()
	ctx := context.Background()
	inv, err := e.orders.Checkout(ctx, buyer, CheckoutInput{AmountCents: amountCents}, token)
	require.NoError(t, err)
	inv, conv, err := e.orders.ConfirmPayment(ctx, inv.ID, Actor{})
	require.NoError(t, err)
	return inv, conv
}

func TestCreateConversionCommission(t *testing.T) {
	e := newEnv(t, false)
	_, conv := seedConversion(t, e, 10000)

	assert.Equal(t, int64(1000), conv.CommissionCents)
	assert.Equal(t, 10.0, conv.CommissionRate)
	assert.Equal(t, domain.ConversionPending, conv.Status)
	assert.Equal(t, domain.ConversionSourceCheckout, conv.Source)
	assert.Equal(t, 1, conv.Version)
}

func TestCommissionRateIsSnapshotted(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	_, conv := seedConversion(t, e, 10000)

	rate := 50.0
	_, err := e.settings.Update(ctx, SettingsUpdate{CommissionRate: &rate})
	require.NoError(t, err)

	got, err := e.conversions.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.CommissionCents)
	assert.Equal(t, 10.0, got.CommissionRate)
}

func TestCreateConversionDuplicateOrder(t *testing.T) {
	e := newEnv(t, false)
	link, conv := seedConversion(t, e, 5000)

	_, err := e.conversions.CreateConversion(context.Background(), link, conv.OrderID, 5000, domain.ConversionSourceForced)
	assert.ErrorIs(t, err, ErrConversionExists)
}

func TestSetStatusApproveSemantics(t *testing.T) {
	tests := []struct {
		name   string
		legacy bool
		want   string
	}{
		{"approved is stored as approved", false, domain.ConversionApproved},
		{"legacy alias stores pending", true, domain.ConversionPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.legacy)
			_, conv := seedConversion(t, e, 10000)

			got, err := e.conversions.SetStatus(context.Background(), StatusChange{
				ConversionID: conv.ID,
				Status:       domain.ConversionApproved,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestSetStatusTransitions(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	link, conv := seedConversion(t, e, 10000)

	got, err := e.conversions.SetStatus(ctx, StatusChange{ConversionID: conv.ID, Status: "paid", Actor: Actor{UserID: 99}})
	require.NoError(t, err)
	assert.Equal(t, domain.ConversionPaid, got.Status)
	assert.Equal(t, 2, got.Version)

	again, err := e.conversions.SetStatus(ctx, StatusChange{ConversionID: conv.ID, Status: domain.ConversionPaid})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Version, "same status is a no-op")

	_, err = e.conversions.SetStatus(ctx, StatusChange{ConversionID: conv.ID, Status: domain.ConversionRejected})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var audits int64
	require.NoError(t, e.db.Model(&models.AuditLog{}).Where("action = ?", "affiliate.conversion.status").Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
	assert.Equal(t, 1, e.publisher.count(domain.EventConversionStatusChanged))

	var statusNotes int
	for _, n := range e.notifier.sent {
		if n.Type == domain.NotificationConversionStatus {
			assert.Equal(t, link.UserID, n.UserID)
			statusNotes++
		}
	}
	assert.Equal(t, 1, statusNotes)
}

func TestSetStatusValidation(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	_, conv := seedConversion(t, e, 10000)

	_, err := e.conversions.SetStatus(ctx, StatusChange{ConversionID: conv.ID})
	assert.ErrorIs(t, err, ErrStatusRequired)

	_, err = e.conversions.SetStatus(ctx, StatusChange{ConversionID: conv.ID, Status: "SHIPPED"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = e.conversions.SetStatus(ctx, StatusChange{ConversionID: conv.ID + 100, Status: domain.ConversionPaid})
	assert.ErrorIs(t, err, ErrConversionNotFound)
}

func TestSetStatusStaleVersion(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	_, conv := seedConversion(t, e, 10000)

	stale := conv.Version
	_, err := e.conversions.SetStatus(ctx, StatusChange{ConversionID: conv.ID, Status: domain.ConversionApproved, ExpectedVersion: &stale})
	require.NoError(t, err)

	_, err = e.conversions.SetStatus(ctx, StatusChange{ConversionID: conv.ID, Status: domain.ConversionPaid, ExpectedVersion: &stale})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestListConversions(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	link, conv := seedConversion(t, e, 10000)

	list, total, err := e.conversions.ListConversions(ctx, ConversionFilter{Status: "pending", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, conv.ID, list[0].ID)
	require.NotNil(t, list[0].Link)
	require.NotNil(t, list[0].Link.User)
	assert.Equal(t, "ref@example.com", list[0].Link.User.Email)

	_, _, err = e.conversions.ListConversions(ctx, ConversionFilter{Status: "bogus", Page: 1, Limit: 20})
	assert.ErrorIs(t, err, ErrValidation)

	mine, _, err := e.conversions.ListForReferrer(ctx, link.UserID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, total, err := e.conversions.ListForReferrer(ctx, link.UserID+100, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Zero(t, total)
}
