package service

import (
	"context"
	"strings"
	"testing"

	"incorpo/internal/domain"
	"incorpo/internal/models"
	"incorpo/internal/testutil"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordClick(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	u := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)
	link, err := e.links.GetOrCreateLink(ctx, u.ID)
	require.NoError(t, err)

	click, gotLink, err := e.clicks.RecordClick(ctx, ClickInput{
		Code:        strings.ToUpper(link.Code),
		IPAddress:   "203.0.113.9",
		UserAgent:   strings.Repeat("x", 2000),
		Referrer:    "https://blog.example.com/post",
		LandingPath: "/pricing",
	})
	require.NoError(t, err)
	assert.Equal(t, link.ID, gotLink.ID)
	assert.Equal(t, link.ID, click.LinkID)
	assert.Len(t, click.UserAgent, 1024)

	var stored models.AffiliateClick
	require.NoError(t, e.db.First(&stored, click.ID).Error)
	assert.Equal(t, "/pricing", stored.LandingPath)
	assert.Equal(t, 1, e.publisher.count(domain.EventClickRecorded))
	assert.Equal(t, 1.0, promtest.ToFloat64(e.metrics.ClicksRecorded))
}

func TestRecordClickUnknownCodeWritesNothing(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	_, _, err := e.clicks.RecordClick(ctx, ClickInput{Code: "missing1"})
	assert.ErrorIs(t, err, ErrInvalidAffiliateCode)

	var n int64
	require.NoError(t, e.db.Model(&models.AffiliateClick{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, promtest.ToFloat64(e.metrics.ClicksRejected))
}

func TestListClicksForUser(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	u := testutil.CreateUser(t, e.db, "ref@example.com", domain.RoleUser)

	list, total, err := e.clicks.ListForUser(ctx, u.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	link, err := e.links.GetOrCreateLink(ctx, u.ID)
	require.NoError(t, err)
	for _, path := range []string{"/a", "/b", "/c"} {
		_, _, err := e.clicks.RecordClick(ctx, ClickInput{Code: link.Code, LandingPath: path})
		require.NoError(t, err)
	}
	list, total, err = e.clicks.ListForUser(ctx, u.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 2)
	assert.Equal(t, "/c", list[0].LandingPath)
}
