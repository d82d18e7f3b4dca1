package businessflow

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	testingutil "github.com/bindlabs/bind/testing"
	"github.com/bindlabs/bind/utils"
)

func eventCount(t *testing.T, env *flowEnv, profileID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(&models.AnalyticsEvent{}).Where("profile_id = ?", profileID).Count(&count).Error)
	return count
}

func TestRecordEvent(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	profile, err := testingutil.CreateTestProfile(env.db, "events")
	require.NoError(t, err)
	link, err := testingutil.CreateTestLink(env.db, profile.ID, "Mine", "https://mine.example.com", 0)
	require.NoError(t, err)

	t.Run("RecordsProfileView", func(t *testing.T) {
		throttle := &fakeThrottle{first: true}
		flow := NewAnalyticsFlow(env.profileRepo, env.linkRepo, env.eventRepo, throttle)

		err := flow.RecordEvent(ctx, &dto.RecordEventRequest{
			ProfileID: profile.UUID.String(),
			EventType: models.EventTypeProfileView,
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, 1, throttle.calls)
		assert.Equal(t, int64(1), eventCount(t, env, profile.ID))
	})

	t.Run("RepeatViewInsideWindowSuppressed", func(t *testing.T) {
		before := eventCount(t, env, profile.ID)
		flow := NewAnalyticsFlow(env.profileRepo, env.linkRepo, env.eventRepo, &fakeThrottle{first: false})

		err := flow.RecordEvent(ctx, &dto.RecordEventRequest{
			ProfileID: profile.UUID.String(),
			EventType: models.EventTypeProfileView,
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, before, eventCount(t, env, profile.ID))
	})

	t.Run("ThrottleFailureRecordsAnyway", func(t *testing.T) {
		before := eventCount(t, env, profile.ID)
		flow := NewAnalyticsFlow(env.profileRepo, env.linkRepo, env.eventRepo, &fakeThrottle{err: errors.New("redis down")})

		err := flow.RecordEvent(ctx, &dto.RecordEventRequest{
			ProfileID: profile.UUID.String(),
			EventType: models.EventTypeProfileView,
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, before+1, eventCount(t, env, profile.ID))
	})

	t.Run("LinkClickRequiresOwnedLink", func(t *testing.T) {
		flow := NewAnalyticsFlow(env.profileRepo, env.linkRepo, env.eventRepo, nil)

		err := flow.RecordEvent(ctx, &dto.RecordEventRequest{
			ProfileID: profile.UUID.String(),
			EventType: models.EventTypeLinkClick,
			LinkID:    utils.ToPtr(link.UUID.String()),
		}, testMetadata())
		require.NoError(t, err)

		// A click without a link id is rejected.
		err = flow.RecordEvent(ctx, &dto.RecordEventRequest{
			ProfileID: profile.UUID.String(),
			EventType: models.EventTypeLinkClick,
		}, testMetadata())
		assert.True(t, IsLinkNotFound(err))

		// A click on someone else's link is rejected.
		other, err := testingutil.CreateTestProfile(env.db, "events-other")
		require.NoError(t, err)
		theirs, err := testingutil.CreateTestLink(env.db, other.ID, "Theirs", "https://theirs.example.com", 0)
		require.NoError(t, err)

		err = flow.RecordEvent(ctx, &dto.RecordEventRequest{
			ProfileID: profile.UUID.String(),
			EventType: models.EventTypeLinkClick,
			LinkID:    utils.ToPtr(theirs.UUID.String()),
		}, testMetadata())
		assert.True(t, IsLinkNotFound(err))
	})

	t.Run("UnknownProfileRejected", func(t *testing.T) {
		flow := NewAnalyticsFlow(env.profileRepo, env.linkRepo, env.eventRepo, nil)
		err := flow.RecordEvent(ctx, &dto.RecordEventRequest{
			ProfileID: "3f1f9e58-0000-4000-8000-000000000000",
			EventType: models.EventTypeProfileView,
		}, testMetadata())
		assert.True(t, IsProfileNotFound(err))
	})
}

func TestAggregate(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewAnalyticsFlow(env.profileRepo, env.linkRepo, env.eventRepo, nil)
	ctx := context.Background()

	profile, err := testingutil.CreateTestProfile(env.db, "agg")
	require.NoError(t, err)
	linkA, err := testingutil.CreateTestLink(env.db, profile.ID, "Top", "https://top.example.com", 0)
	require.NoError(t, err)
	linkB, err := testingutil.CreateTestLink(env.db, profile.ID, "Runner up", "https://second.example.com", 1)
	require.NoError(t, err)

	now := utils.UTCNow()

	// Two views and one click today, one view three days ago, one view well
	// outside the window.
	_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeProfileView, nil, now)
	require.NoError(t, err)
	_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeProfileView, nil, now)
	require.NoError(t, err)
	_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeLinkClick, &linkA.ID, now)
	require.NoError(t, err)
	_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeProfileView, nil, now.AddDate(0, 0, -3))
	require.NoError(t, err)
	_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeProfileView, nil, now.AddDate(0, 0, -30))
	require.NoError(t, err)

	t.Run("DefaultWindowZeroFilled", func(t *testing.T) {
		agg, err := flow.Aggregate(ctx, profile.UserID, 0)
		require.NoError(t, err)

		assert.Equal(t, utils.DefaultAnalyticsWindowDays, agg.WindowDays)
		assert.Equal(t, int64(3), agg.TotalViews)
		assert.Equal(t, int64(1), agg.TotalClicks)

		require.Len(t, agg.Days, utils.DefaultAnalyticsWindowDays)
		for i, day := range agg.Days {
			expected := now.AddDate(0, 0, -(utils.DefaultAnalyticsWindowDays - 1 - i)).Format("2006-01-02")
			assert.Equal(t, expected, day.Date)
		}

		today := agg.Days[len(agg.Days)-1]
		assert.Equal(t, int64(2), today.Views)
		assert.Equal(t, int64(1), today.Clicks)

		threeDaysAgo := agg.Days[len(agg.Days)-4]
		assert.Equal(t, int64(1), threeDaysAgo.Views)
		assert.Equal(t, int64(0), threeDaysAgo.Clicks)

		// Quiet days are present with explicit zeros.
		yesterday := agg.Days[len(agg.Days)-2]
		assert.Equal(t, int64(0), yesterday.Views)
		assert.Equal(t, int64(0), yesterday.Clicks)
	})

	t.Run("TopLinksRankedAndEnriched", func(t *testing.T) {
		_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeLinkClick, &linkB.ID, now)
		require.NoError(t, err)
		_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeLinkClick, &linkA.ID, now)
		require.NoError(t, err)

		agg, err := flow.Aggregate(ctx, profile.UserID, 7)
		require.NoError(t, err)
		require.Len(t, agg.TopLinks, 2)
		assert.Equal(t, linkA.UUID.String(), agg.TopLinks[0].LinkID)
		assert.Equal(t, "Top", agg.TopLinks[0].Title)
		assert.Equal(t, int64(2), agg.TopLinks[0].Clicks)
		assert.Equal(t, int64(1), agg.TopLinks[1].Clicks)
	})

	t.Run("DeletedLinkKeepsCountsButIsNotListed", func(t *testing.T) {
		require.NoError(t, env.db.Delete(&models.Link{}, linkB.ID).Error)

		agg, err := flow.Aggregate(ctx, profile.UserID, 7)
		require.NoError(t, err)
		require.Len(t, agg.TopLinks, 1)
		assert.Equal(t, linkA.UUID.String(), agg.TopLinks[0].LinkID)
		// Historical clicks on the deleted link still count toward totals.
		assert.Equal(t, int64(3), agg.TotalClicks)
	})

	t.Run("WindowBounds", func(t *testing.T) {
		_, err := flow.Aggregate(ctx, profile.UserID, -1)
		assert.True(t, IsInvalidWindow(err))

		_, err = flow.Aggregate(ctx, profile.UserID, utils.MaxAnalyticsWindowDays+1)
		assert.True(t, IsInvalidWindow(err))

		agg, err := flow.Aggregate(ctx, profile.UserID, 30)
		require.NoError(t, err)
		assert.Len(t, agg.Days, 30)
	})
}

func TestTopLinkTieBreak(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewAnalyticsFlow(env.profileRepo, env.linkRepo, env.eventRepo, nil)
	ctx := context.Background()

	profile, err := testingutil.CreateTestProfile(env.db, "ties")
	require.NoError(t, err)
	linkA, err := testingutil.CreateTestLink(env.db, profile.ID, "Alpha", "https://alpha.example.com", 0)
	require.NoError(t, err)
	linkB, err := testingutil.CreateTestLink(env.db, profile.ID, "Beta", "https://beta.example.com", 1)
	require.NoError(t, err)

	now := utils.UTCNow()
	for _, id := range []uint{linkA.ID, linkB.ID} {
		for range 2 {
			_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeLinkClick, &id, now)
			require.NoError(t, err)
		}
	}

	agg, err := flow.Aggregate(ctx, profile.UserID, 7)
	require.NoError(t, err)
	require.Len(t, agg.TopLinks, 2)
	assert.Equal(t, int64(2), agg.TopLinks[0].Clicks)
	assert.Equal(t, int64(2), agg.TopLinks[1].Clicks)

	// Equal click counts order by public link id, regardless of which row
	// was inserted first.
	expected := []string{linkA.UUID.String(), linkB.UUID.String()}
	sort.Strings(expected)
	assert.Equal(t, expected, []string{agg.TopLinks[0].LinkID, agg.TopLinks[1].LinkID})
}

func TestExportAggregate(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewAnalyticsFlow(env.profileRepo, env.linkRepo, env.eventRepo, nil)
	ctx := context.Background()

	profile, err := testingutil.CreateTestProfile(env.db, "export")
	require.NoError(t, err)
	link, err := testingutil.CreateTestLink(env.db, profile.ID, "Clicked", "https://clicked.example.com", 0)
	require.NoError(t, err)
	_, err = testingutil.CreateTestEvent(env.db, profile.ID, models.EventTypeLinkClick, &link.ID, utils.UTCNow())
	require.NoError(t, err)

	buf, filename, err := flow.ExportAggregate(ctx, profile.UserID, 7)
	require.NoError(t, err)
	require.NotNil(t, buf)
	assert.Greater(t, buf.Len(), 0)
	assert.Contains(t, filename, "analytics-7d-")
	assert.Contains(t, filename, ".xlsx")
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	start := windowStart(now, 7)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), start)

	start = windowStart(now, 1)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), start)
}
