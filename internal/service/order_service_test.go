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

func TestCheckoutWithoutAttribution(t *testing.T) {
	e := newEnv(t, false)
	buyer := testutil.CreateUser(t, e.db, "buyer@example.com", domain.RoleUser)

	inv, err := e.orders.Checkout(context.Background(), buyer, CheckoutInput{AmountCents: 2500, Description: "LLC filing"}, AttributionToken{})
	require.NoError(t, err)
	assert.Nil(t, inv.AffiliateLinkID)
	assert.Equal(t, domain.InvoiceStatusPending, inv.Status)
	assert.Equal(t, domain.DefaultCurrency, inv.Currency)
	assert.Len(t, inv.Number, 36)

	inv, conv, err := e.orders.ConfirmPayment(context.Background(), inv.ID, Actor{})
	require.NoError(t, err)
	assert.Nil(t, conv)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
}

func TestCheckoutRejectsBadAmount(t *testing.T) {
	e := newEnv(t, false)
	buyer := testutil.CreateUser(t, e.db, "buyer@example.com", domain.RoleUser)

	_, err := e.orders.Checkout(context.Background(), buyer, CheckoutInput{AmountCents: 0}, AttributionToken{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.orders.Checkout(context.Background(), buyer, CheckoutInput{AmountCents: 100, Currency: "dollars"}, AttributionToken{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckoutCreatesNoCommissionUntilPaid(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	ref := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)
	buyer := testutil.CreateUser(t, e.db, "buyer@example.com", domain.RoleUser)
	link, err := e.links.GetOrCreateLink(ctx, ref.ID)
	require.NoError(t, err)

	inv, err := e.orders.Checkout(ctx, buyer, CheckoutInput{AmountCents: 100000000}, AttributionToken{Code: link.Code, Source: SourceBody})
	require.NoError(t, err)
	require.NotNil(t, inv.AffiliateLinkID)
	assert.Equal(t, link.ID, *inv.AffiliateLinkID)

	var n int64
	require.NoError(t, e.db.Model(&models.AffiliateConversion{}).Count(&n).Error)
	assert.Zero(t, n)
	bal, err := e.payouts.Balance(ctx, ref.ID)
	require.NoError(t, err)
	assert.Zero(t, bal.EarnedCents)
	assert.Zero(t, e.publisher.count(domain.EventConversionCreated))
}

func TestConfirmPayment(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	link, conv := seedConversion(t, e, 20000)

	var inv models.Invoice
	require.NoError(t, e.db.First(&inv, conv.OrderID).Error)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.AffiliateLinkID)
	assert.Equal(t, link.ID, *inv.AffiliateLinkID)
	assert.Equal(t, int64(2000), conv.CommissionCents)
	assert.Equal(t, domain.ConversionSourceCheckout, conv.Source)
	assert.Equal(t, 1, e.publisher.count(domain.EventConversionCreated))

	_, _, err := e.orders.ConfirmPayment(ctx, inv.ID, Actor{})
	assert.ErrorIs(t, err, ErrInvoicePaid)
	_, _, err = e.orders.ConfirmPayment(ctx, inv.ID+100, Actor{})
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	var n int64
	require.NoError(t, e.db.Model(&models.AffiliateConversion{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestConfirmPaymentRollsBackOnDuplicateConversion(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	ref := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)
	buyer := testutil.CreateUser(t, e.db, "buyer@example.com", domain.RoleUser)
	link, err := e.links.GetOrCreateLink(ctx, ref.ID)
	require.NoError(t, err)
	inv, err := e.orders.Checkout(ctx, buyer, CheckoutInput{AmountCents: 5000}, AttributionToken{Code: link.Code})
	require.NoError(t, err)

	// a conversion that slipped in for the same order
	_, err = e.conversions.CreateConversion(ctx, link, inv.ID, 5000, domain.ConversionSourceForced)
	require.NoError(t, err)

	_, _, err = e.orders.ConfirmPayment(ctx, inv.ID, Actor{})
	assert.ErrorIs(t, err, ErrConversionExists)

	var got models.Invoice
	require.NoError(t, e.db.First(&got, inv.ID).Error)
	assert.Equal(t, domain.InvoiceStatusPending, got.Status)
}

func TestForceConversion(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	ref := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)
	buyer := testutil.CreateUser(t, e.db, "buyer@example.com", domain.RoleUser)
	link, err := e.links.GetOrCreateLink(ctx, ref.ID)
	require.NoError(t, err)

	unpaid, err := e.orders.Checkout(ctx, buyer, CheckoutInput{AmountCents: 500000}, AttributionToken{})
	require.NoError(t, err)
	_, err = e.orders.ForceConversion(ctx, unpaid.ID, link.Code, Actor{})
	assert.ErrorIs(t, err, ErrInvoiceNotPaid)

	inv, _ := paidCheckout(t, e, buyer, 9900, AttributionToken{})

	_, err = e.orders.ForceConversion(ctx, inv.ID+100, link.Code, Actor{})
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	_, err = e.orders.ForceConversion(ctx, inv.ID, "nosuch00", Actor{})
	assert.ErrorIs(t, err, ErrLinkNotFound)

	conv, err := e.orders.ForceConversion(ctx, inv.ID, link.Code, Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.ConversionPending, conv.Status)
	assert.Equal(t, domain.ConversionSourceForced, conv.Source)
	assert.Equal(t, int64(990), conv.CommissionCents)

	var bound models.Invoice
	require.NoError(t, e.db.First(&bound, inv.ID).Error)
	require.NotNil(t, bound.AffiliateLinkID)
	assert.Equal(t, link.ID, *bound.AffiliateLinkID)

	_, err = e.orders.ForceConversion(ctx, inv.ID, link.Code, Actor{})
	assert.ErrorIs(t, err, ErrConversionExists)
}
