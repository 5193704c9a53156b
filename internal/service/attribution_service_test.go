package service

import (
	"context"
	"testing"
	"time"

	"incorpo/internal/domain"
	"incorpo/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	ref := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)
	link, err := e.links.GetOrCreateLink(ctx, ref.ID)
	require.NoError(t, err)

	_, err = e.attribution.Resolve(ctx, AttributionToken{})
	assert.ErrorIs(t, err, ErrNoAttribution)

	_, err = e.attribution.Resolve(ctx, AttributionToken{Code: "unknown1", Source: SourceCookie})
	assert.ErrorIs(t, err, ErrInvalidAffiliateCode)

	got, err := e.attribution.Resolve(ctx, AttributionToken{Code: link.Code, Source: SourceHeader})
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
}

func TestResolveForOrder(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	ref := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)
	buyer := testutil.CreateUser(t, e.db, "buyer@example.com", domain.RoleUser)
	link, err := e.links.GetOrCreateLink(ctx, ref.ID)
	require.NoError(t, err)

	t.Run("token wins", func(t *testing.T) {
		got := e.attribution.ResolveForOrder(ctx, buyer, AttributionToken{Code: link.Code, Source: SourceCookie})
		require.NotNil(t, got)
		assert.Equal(t, link.ID, got.ID)
	})
	t.Run("no token and nothing stored", func(t *testing.T) {
		assert.Nil(t, e.attribution.ResolveForOrder(ctx, buyer, AttributionToken{}))
	})
	t.Run("self referral", func(t *testing.T) {
		assert.Nil(t, e.attribution.ResolveForOrder(ctx, ref, AttributionToken{Code: link.Code}))
	})
	t.Run("unknown code is ignored", func(t *testing.T) {
		assert.Nil(t, e.attribution.ResolveForOrder(ctx, buyer, AttributionToken{Code: "zzzzzzzz"}))
	})
	t.Run("stale cookie falls back to remembered email", func(t *testing.T) {
		other := testutil.CreateUser(t, e.db, "other@example.com", domain.RoleUser)
		otherLink, err := e.links.GetOrCreateLink(ctx, other.ID)
		require.NoError(t, err)
		require.NoError(t, e.attribution.Remember(ctx, buyer.Email, AttributionToken{Code: otherLink.Code, Source: SourceCookie}))

		got := e.attribution.ResolveForOrder(ctx, buyer, AttributionToken{Code: "deadbeef", Source: SourceCookie})
		require.NotNil(t, got)
		assert.Equal(t, otherLink.ID, got.ID)

		got = e.attribution.ResolveForOrder(ctx, buyer, AttributionToken{Code: link.Code, Source: SourceCookie})
		require.NotNil(t, got)
		assert.Equal(t, link.ID, got.ID)
	})
}

func TestRememberedAttributionExpires(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	ref := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)
	buyer := testutil.CreateUser(t, e.db, "buyer@example.com", domain.RoleUser)
	link, err := e.links.GetOrCreateLink(ctx, ref.ID)
	require.NoError(t, err)

	now := time.Now()
	e.attribution.now = func() time.Time { return now }
	require.NoError(t, e.attribution.Remember(ctx, "Buyer@Example.com", AttributionToken{Code: link.Code, Source: SourceBody}))

	got := e.attribution.ResolveForOrder(ctx, buyer, AttributionToken{})
	require.NotNil(t, got)
	assert.Equal(t, link.ID, got.ID)

	e.attribution.now = func() time.Time { return now.Add(31 * 24 * time.Hour) }
	assert.Nil(t, e.attribution.ResolveForOrder(ctx, buyer, AttributionToken{}))
}
