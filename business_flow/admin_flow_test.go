package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	testingutil "github.com/bindlabs/bind/testing"
	"github.com/bindlabs/bind/utils"
)

func makeAdmin(t *testing.T, env *flowEnv, suffix string) *models.Profile {
	t.Helper()
	profile, err := testingutil.CreateTestProfile(env.db, suffix)
	require.NoError(t, err)
	profile.Role = utils.ToPtr(models.RoleAdmin)
	require.NoError(t, env.db.Save(profile).Error)
	return profile
}

func TestSetRole(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewAdminFlow(env.profileRepo, env.auditRepo, env.db)
	ctx := context.Background()

	admin := makeAdmin(t, env, "admin")
	target, err := testingutil.CreateTestProfile(env.db, "target")
	require.NoError(t, err)

	t.Run("NonAdminRejected", func(t *testing.T) {
		plain, err := testingutil.CreateTestProfile(env.db, "plain")
		require.NoError(t, err)

		_, err = flow.SetRole(ctx, plain.UserID, target.UUID.String(), &dto.SetRoleRequest{Role: models.RoleAdmin}, testMetadata())
		assert.True(t, IsAdminAccessRequired(err))
	})

	t.Run("InvalidRoleRejected", func(t *testing.T) {
		_, err := flow.SetRole(ctx, admin.UserID, target.UUID.String(), &dto.SetRoleRequest{Role: "superuser"}, testMetadata())
		assert.True(t, IsInvalidRole(err))
	})

	t.Run("RoleChangeWritesAuditRow", func(t *testing.T) {
		resp, err := flow.SetRole(ctx, admin.UserID, target.UUID.String(), &dto.SetRoleRequest{Role: models.RoleAdmin}, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp.Profile.Role)
		assert.Equal(t, models.RoleAdmin, *resp.Profile.Role)

		entries, err := env.auditRepo.ByTargetProfileID(ctx, target.ID, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, admin.ID, entries[0].ActorProfileID)
		assert.Equal(t, models.AuditActionSetRole, entries[0].Action)
		assert.Nil(t, entries[0].OldValue)
		require.NotNil(t, entries[0].NewValue)
		assert.Equal(t, models.RoleAdmin, *entries[0].NewValue)
	})

	t.Run("UnknownTargetNotFound", func(t *testing.T) {
		_, err := flow.SetRole(ctx, admin.UserID, "3f1f9e58-0000-4000-8000-000000000000", &dto.SetRoleRequest{Role: models.RoleUser}, testMetadata())
		assert.True(t, IsProfileNotFound(err))
	})
}

func TestListProfiles(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewAdminFlow(env.profileRepo, env.auditRepo, env.db)
	ctx := context.Background()

	admin := makeAdmin(t, env, "lister")
	for _, suffix := range []string{"p1", "p2", "p3"} {
		_, err := testingutil.CreateTestProfile(env.db, suffix)
		require.NoError(t, err)
	}

	t.Run("NonAdminRejected", func(t *testing.T) {
		plain, err := testingutil.CreateTestProfile(env.db, "viewer")
		require.NoError(t, err)

		_, err = flow.ListProfiles(ctx, plain.UserID, 1, 20)
		assert.True(t, IsAdminAccessRequired(err))
	})

	t.Run("PaginationBounds", func(t *testing.T) {
		_, err := flow.ListProfiles(ctx, admin.UserID, 0, 20)
		assert.ErrorIs(t, err, ErrInvalidPage)

		_, err = flow.ListProfiles(ctx, admin.UserID, 1, 0)
		assert.ErrorIs(t, err, ErrInvalidPageSize)

		_, err = flow.ListProfiles(ctx, admin.UserID, 1, 101)
		assert.ErrorIs(t, err, ErrInvalidPageSize)
	})

	t.Run("ReturnsPage", func(t *testing.T) {
		resp, err := flow.ListProfiles(ctx, admin.UserID, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, 2, resp.PageSize)
		assert.Len(t, resp.Profiles, 2)

		second, err := flow.ListProfiles(ctx, admin.UserID, 2, 2)
		require.NoError(t, err)
		assert.NotEmpty(t, second.Profiles)
		assert.NotEqual(t, resp.Profiles[0].UUID, second.Profiles[0].UUID)
	})
}

func TestGetAuditTrail(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewAdminFlow(env.profileRepo, env.auditRepo, env.db)
	ctx := context.Background()

	admin := makeAdmin(t, env, "auditor")
	target, err := testingutil.CreateTestProfile(env.db, "audited")
	require.NoError(t, err)

	t.Run("NonAdminRejected", func(t *testing.T) {
		plain, err := testingutil.CreateTestProfile(env.db, "snoop")
		require.NoError(t, err)

		_, err = flow.GetAuditTrail(ctx, plain.UserID, target.UUID.String())
		assert.True(t, IsAdminAccessRequired(err))
	})

	t.Run("UnknownTargetNotFound", func(t *testing.T) {
		_, err := flow.GetAuditTrail(ctx, admin.UserID, "3f1f9e58-0000-4000-8000-000000000000")
		assert.True(t, IsProfileNotFound(err))
	})

	t.Run("EmptyTrailForUntouchedProfile", func(t *testing.T) {
		resp, err := flow.GetAuditTrail(ctx, admin.UserID, target.UUID.String())
		require.NoError(t, err)
		assert.Empty(t, resp.Entries)
	})

	t.Run("ReturnsEntriesNewestFirst", func(t *testing.T) {
		_, err := flow.SetRole(ctx, admin.UserID, target.UUID.String(), &dto.SetRoleRequest{Role: models.RoleAdmin}, testMetadata())
		require.NoError(t, err)
		_, err = flow.SetRole(ctx, admin.UserID, target.UUID.String(), &dto.SetRoleRequest{Role: models.RoleUser}, testMetadata())
		require.NoError(t, err)

		resp, err := flow.GetAuditTrail(ctx, admin.UserID, target.UUID.String())
		require.NoError(t, err)
		require.Len(t, resp.Entries, 2)

		newest := resp.Entries[0]
		assert.Equal(t, models.AuditActionSetRole, newest.Action)
		assert.Equal(t, admin.ID, newest.ActorProfileID)
		require.NotNil(t, newest.NewValue)
		assert.Equal(t, models.RoleUser, *newest.NewValue)

		require.NotNil(t, resp.Entries[1].NewValue)
		assert.Equal(t, models.RoleAdmin, *resp.Entries[1].NewValue)
	})
}
