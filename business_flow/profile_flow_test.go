package businessflow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	testingutil "github.com/bindlabs/bind/testing"
	"github.com/bindlabs/bind/utils"
)

func TestUpdateProfile(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewProfileFlow(env.profileRepo, env.db)
	ctx := context.Background()

	profile, err := testingutil.CreateTestProfile(env.db, "update")
	require.NoError(t, err)

	t.Run("PartialUpdateLeavesOtherFieldsAlone", func(t *testing.T) {
		resp, err := flow.UpdateProfile(ctx, profile.UserID, &dto.UpdateProfileRequest{
			Bio: utils.ToPtr("hello from the tests"),
		}, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp.Profile.Bio)
		assert.Equal(t, "hello from the tests", *resp.Profile.Bio)
		assert.Equal(t, profile.Username, resp.Profile.Username)
	})

	t.Run("EmptyRequestRejected", func(t *testing.T) {
		_, err := flow.UpdateProfile(ctx, profile.UserID, &dto.UpdateProfileRequest{}, testMetadata())
		assert.True(t, IsNoFieldsToUpdate(err))
	})

	t.Run("BioOverLimitRejected", func(t *testing.T) {
		long := strings.Repeat("x", 161)
		_, err := flow.UpdateProfile(ctx, profile.UserID, &dto.UpdateProfileRequest{Bio: &long}, testMetadata())
		assert.True(t, IsInvalidBio(err))
	})

	t.Run("UsernameConflictRejected", func(t *testing.T) {
		other, err := testingutil.CreateTestProfile(env.db, "taken")
		require.NoError(t, err)

		_, err = flow.UpdateProfile(ctx, profile.UserID, &dto.UpdateProfileRequest{
			Username: &other.Username,
		}, testMetadata())
		assert.True(t, IsUsernameTaken(err))
	})

	t.Run("KeepingOwnUsernameIsNotAConflict", func(t *testing.T) {
		resp, err := flow.UpdateProfile(ctx, profile.UserID, &dto.UpdateProfileRequest{
			Username: &profile.Username,
			Location: utils.ToPtr("Berlin"),
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, profile.Username, resp.Profile.Username)
	})

	t.Run("UnknownPrincipalNotFound", func(t *testing.T) {
		_, err := flow.UpdateProfile(ctx, "user-missing", &dto.UpdateProfileRequest{
			Bio: utils.ToPtr("x"),
		}, testMetadata())
		assert.True(t, IsProfileNotFound(err))
	})
}

func TestApplyCustomization(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewProfileFlow(env.profileRepo, env.db)
	ctx := context.Background()

	profile, err := testingutil.CreateTestProfile(env.db, "custom")
	require.NoError(t, err)

	t.Run("AppliesPresentFields", func(t *testing.T) {
		resp, err := flow.ApplyCustomization(ctx, profile.UserID, &dto.UpdateCustomizationRequest{
			AccentColor:    utils.ToPtr("#ff00aa"),
			ProfileOpacity: utils.ToPtr(55),
			AnimatedTitle:  utils.ToPtr(true),
		}, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp.Profile.AccentColor)
		assert.Equal(t, "#ff00aa", *resp.Profile.AccentColor)
		assert.Equal(t, 55, resp.Profile.ProfileOpacity)
		assert.True(t, resp.Profile.AnimatedTitle)
		// Untouched fields keep their stored values.
		assert.Equal(t, models.DefaultProfileBlur, resp.Profile.ProfileBlur)
	})

	t.Run("RangeViolationsWriteNothing", func(t *testing.T) {
		cases := []struct {
			name  string
			req   *dto.UpdateCustomizationRequest
			check func(error) bool
		}{
			{"opacity above range", &dto.UpdateCustomizationRequest{ProfileOpacity: utils.ToPtr(101)}, IsInvalidOpacity},
			{"opacity below range", &dto.UpdateCustomizationRequest{ProfileOpacity: utils.ToPtr(-1)}, IsInvalidOpacity},
			{"blur above range", &dto.UpdateCustomizationRequest{ProfileBlur: utils.ToPtr(81)}, IsInvalidBlur},
			{"bad color", &dto.UpdateCustomizationRequest{TextColor: utils.ToPtr("red")}, IsInvalidColor},
			{"bad presence", &dto.UpdateCustomizationRequest{DiscordPresence: utils.ToPtr("maybe")}, IsInvalidPresenceMode},
			{"bad effect", &dto.UpdateCustomizationRequest{BackgroundEffect: utils.ToPtr("confetti")}, IsInvalidBackgroundEffect},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				// Each bad request also carries a valid field; the valid
				// field must not land either.
				tc.req.IconColor = utils.ToPtr("#123456")
				_, err := flow.ApplyCustomization(ctx, profile.UserID, tc.req, testMetadata())
				assert.True(t, tc.check(err))

				stored, err := env.profileRepo.ByUserID(ctx, profile.UserID)
				require.NoError(t, err)
				assert.Nil(t, stored.IconColor)
			})
		}
	})

	t.Run("BoundaryValuesAccepted", func(t *testing.T) {
		_, err := flow.ApplyCustomization(ctx, profile.UserID, &dto.UpdateCustomizationRequest{
			ProfileOpacity: utils.ToPtr(0),
			ProfileBlur:    utils.ToPtr(80),
		}, testMetadata())
		require.NoError(t, err)

		_, err = flow.ApplyCustomization(ctx, profile.UserID, &dto.UpdateCustomizationRequest{
			ProfileOpacity: utils.ToPtr(100),
			ProfileBlur:    utils.ToPtr(0),
		}, testMetadata())
		require.NoError(t, err)
	})
}

func TestEquipBadges(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewProfileFlow(env.profileRepo, env.db)
	ctx := context.Background()

	profile, err := testingutil.CreateTestProfile(env.db, "badges")
	require.NoError(t, err)

	t.Run("EquipUnlockedBadge", func(t *testing.T) {
		resp, err := flow.EquipBadges(ctx, profile.UserID, &dto.EquipBadgesRequest{
			Badges: []string{BadgePioneer},
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, []string{BadgePioneer}, resp.Profile.EquippedBadges)
	})

	t.Run("DuplicatesCollapse", func(t *testing.T) {
		resp, err := flow.EquipBadges(ctx, profile.UserID, &dto.EquipBadgesRequest{
			Badges: []string{BadgePioneer, BadgePioneer},
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, []string{BadgePioneer}, resp.Profile.EquippedBadges)
	})

	t.Run("UnknownBadgeRejected", func(t *testing.T) {
		_, err := flow.EquipBadges(ctx, profile.UserID, &dto.EquipBadgesRequest{
			Badges: []string{"nonexistent-id"},
		}, testMetadata())
		assert.True(t, IsUnknownBadge(err))
	})

	t.Run("LockedBadgeRejected", func(t *testing.T) {
		_, err := flow.EquipBadges(ctx, profile.UserID, &dto.EquipBadgesRequest{
			Badges: []string{BadgeVerified},
		}, testMetadata())
		assert.True(t, IsBadgeNotUnlocked(err))
	})

	t.Run("EmptySetUnequipsAll", func(t *testing.T) {
		resp, err := flow.EquipBadges(ctx, profile.UserID, &dto.EquipBadgesRequest{Badges: []string{}}, testMetadata())
		require.NoError(t, err)
		assert.Empty(t, resp.Profile.EquippedBadges)
	})
}
