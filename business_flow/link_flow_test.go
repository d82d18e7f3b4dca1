package businessflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	testingutil "github.com/bindlabs/bind/testing"
	"github.com/bindlabs/bind/utils"
)

func TestReconcileLinks(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewLinkFlow(env.profileRepo, env.linkRepo, env.db)
	ctx := context.Background()

	t.Run("NewEntriesGetServerIDs", func(t *testing.T) {
		profile, err := testingutil.CreateTestProfile(env.db, "links-new")
		require.NoError(t, err)

		resp, err := flow.ReconcileLinks(ctx, profile.UserID, &dto.SaveLinksRequest{
			Links: []dto.SubmittedLink{
				{ID: "new-1", Title: "GitHub", URL: "https://github.com/someone"},
				{ID: "new-2", Title: "Blog", URL: "https://blog.example.com"},
			},
		}, testMetadata())
		require.NoError(t, err)
		require.Len(t, resp.Links, 2)

		assert.Equal(t, "GitHub", resp.Links[0].Title)
		assert.Equal(t, 0, resp.Links[0].Order)
		assert.Equal(t, 1, resp.Links[1].Order)
		for _, l := range resp.Links {
			assert.False(t, strings.HasPrefix(l.ID, utils.NewLinkIDPrefix))
			_, err := uuid.Parse(l.ID)
			assert.NoError(t, err)
		}
	})

	t.Run("AbsentLinksAreDeletedAndSurvivorsRenumbered", func(t *testing.T) {
		profile, err := testingutil.CreateTestProfile(env.db, "links-reorder")
		require.NoError(t, err)

		linkA, err := testingutil.CreateTestLink(env.db, profile.ID, "A", "https://a.example.com", 0)
		require.NoError(t, err)
		_, err = testingutil.CreateTestLink(env.db, profile.ID, "B", "https://b.example.com", 1)
		require.NoError(t, err)
		linkC, err := testingutil.CreateTestLink(env.db, profile.ID, "C", "https://c.example.com", 2)
		require.NoError(t, err)

		// Submit C then A; B is absent and must be deleted.
		resp, err := flow.ReconcileLinks(ctx, profile.UserID, &dto.SaveLinksRequest{
			Links: []dto.SubmittedLink{
				{ID: linkC.UUID.String(), Title: "C renamed", URL: "https://c.example.com"},
				{ID: linkA.UUID.String(), Title: "A", URL: "https://a.example.com"},
			},
		}, testMetadata())
		require.NoError(t, err)
		require.Len(t, resp.Links, 2)
		assert.Equal(t, "C renamed", resp.Links[0].Title)
		assert.Equal(t, 0, resp.Links[0].Order)
		assert.Equal(t, "A", resp.Links[1].Title)
		assert.Equal(t, 1, resp.Links[1].Order)

		var count int64
		require.NoError(t, env.db.Model(&models.Link{}).Where("profile_id = ?", profile.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("ForeignIDRejectedAndNothingChanges", func(t *testing.T) {
		profile, err := testingutil.CreateTestProfile(env.db, "links-foreign")
		require.NoError(t, err)
		other, err := testingutil.CreateTestProfile(env.db, "links-victim")
		require.NoError(t, err)
		foreign, err := testingutil.CreateTestLink(env.db, other.ID, "Theirs", "https://theirs.example.com", 0)
		require.NoError(t, err)

		_, err = flow.ReconcileLinks(ctx, profile.UserID, &dto.SaveLinksRequest{
			Links: []dto.SubmittedLink{
				{ID: foreign.UUID.String(), Title: "Hijack", URL: "https://evil.example.com"},
			},
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsLinkNotFound(err))

		stored, err := env.linkRepo.ByUUID(ctx, foreign.UUID.String())
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "Theirs", stored.Title)
	})

	t.Run("InvalidEntriesReportedByIndex", func(t *testing.T) {
		profile, err := testingutil.CreateTestProfile(env.db, "links-invalid")
		require.NoError(t, err)

		_, err = flow.ReconcileLinks(ctx, profile.UserID, &dto.SaveLinksRequest{
			Links: []dto.SubmittedLink{
				{ID: "new-1", Title: "   ", URL: "https://ok.example.com"},
				{ID: "new-2", Title: "Fine", URL: "https://fine.example.com"},
				{ID: "new-3", Title: "Bad URL", URL: "not a url"},
				{ID: "new-4", Title: "Relative", URL: "/just/a/path"},
			},
		}, testMetadata())
		require.Error(t, err)

		var linkErr *LinkValidationError
		require.True(t, errors.As(err, &linkErr))
		assert.Equal(t, []int{0, 2, 3}, linkErr.Indices)
		assert.True(t, IsInvalidLink(err))

		// A rejected submission must not create anything.
		var count int64
		require.NoError(t, env.db.Model(&models.Link{}).Where("profile_id = ?", profile.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("EmptySubmissionClearsTheSet", func(t *testing.T) {
		profile, err := testingutil.CreateTestProfile(env.db, "links-clear")
		require.NoError(t, err)
		_, err = testingutil.CreateTestLink(env.db, profile.ID, "Gone", "https://gone.example.com", 0)
		require.NoError(t, err)

		resp, err := flow.ReconcileLinks(ctx, profile.UserID, &dto.SaveLinksRequest{Links: []dto.SubmittedLink{}}, testMetadata())
		require.NoError(t, err)
		assert.Empty(t, resp.Links)
	})
}

func TestGetLinksOrdersByPosition(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewLinkFlow(env.profileRepo, env.linkRepo, env.db)
	ctx := context.Background()

	profile, err := testingutil.CreateTestProfile(env.db, "links-get")
	require.NoError(t, err)
	_, err = testingutil.CreateTestLink(env.db, profile.ID, "Second", "https://two.example.com", 1)
	require.NoError(t, err)
	_, err = testingutil.CreateTestLink(env.db, profile.ID, "First", "https://one.example.com", 0)
	require.NoError(t, err)

	resp, err := flow.GetLinks(ctx, profile.UserID)
	require.NoError(t, err)
	require.Len(t, resp.Links, 2)
	assert.Equal(t, "First", resp.Links[0].Title)
	assert.Equal(t, "Second", resp.Links[1].Title)
}
