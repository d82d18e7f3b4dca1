package businessflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/utils"
)

func TestResolveOrCreateProfile(t *testing.T) {
	env := newFlowEnv(t)
	flow := NewIdentityFlow(env.profileRepo, env.db)
	ctx := context.Background()

	t.Run("CreatesProfileOnFirstLogin", func(t *testing.T) {
		req := &dto.BootstrapProfileRequest{
			Username: "first_login",
			FullName: utils.ToPtr("First Login"),
			Email:    utils.ToPtr("first@example.com"),
		}

		resp, err := flow.ResolveOrCreateProfile(ctx, "user-bootstrap", req, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "Profile created", resp.Message)
		assert.Equal(t, "first_login", resp.Profile.Username)
		assert.NotEmpty(t, resp.Profile.UUID)

		stored, err := env.profileRepo.ByUserID(ctx, "user-bootstrap")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, models.DefaultProfileOpacity, stored.ProfileOpacity)
		assert.Equal(t, models.DefaultProfileBlur, stored.ProfileBlur)
		assert.Equal(t, models.DiscordPresenceDisabled, stored.DiscordPresence)
		assert.Equal(t, models.BackgroundEffectNone, stored.BackgroundEffect)
		assert.Equal(t, []string{BadgePioneer}, stored.UnlockedBadges)
		assert.Empty(t, stored.EquippedBadges)
	})

	t.Run("SecondCallIsIdempotent", func(t *testing.T) {
		first, err := flow.ResolveOrCreateProfile(ctx, "user-repeat", &dto.BootstrapProfileRequest{Username: "repeat_user"}, testMetadata())
		require.NoError(t, err)

		// A repeat call with a different payload must neither create a
		// second profile nor mutate the existing one.
		second, err := flow.ResolveOrCreateProfile(ctx, "user-repeat", &dto.BootstrapProfileRequest{Username: "different_name"}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, "Profile resolved", second.Message)
		assert.Equal(t, first.Profile.UUID, second.Profile.UUID)
		assert.Equal(t, "repeat_user", second.Profile.Username)

		var count int64
		require.NoError(t, env.db.Model(&models.Profile{}).Where("user_id = ?", "user-repeat").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("RejectsTakenUsername", func(t *testing.T) {
		_, err := flow.ResolveOrCreateProfile(ctx, "user-a", &dto.BootstrapProfileRequest{Username: "contested"}, testMetadata())
		require.NoError(t, err)

		_, err = flow.ResolveOrCreateProfile(ctx, "user-b", &dto.BootstrapProfileRequest{Username: "contested"}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsUsernameTaken(err))
	})

	t.Run("UsernameValidation", func(t *testing.T) {
		cases := []struct {
			username string
			valid    bool
		}{
			{"ab", false},
			{"ab_12", true},
			{"ab!12", false},
			{"with space", false},
			{"UPPER_lower_09", true},
		}
		for i, tc := range cases {
			userID := fmt.Sprintf("user-case-%d", i)
			_, err := flow.ResolveOrCreateProfile(ctx, userID, &dto.BootstrapProfileRequest{Username: tc.username}, testMetadata())
			if tc.valid {
				assert.NoError(t, err, tc.username)
			} else {
				assert.True(t, IsInvalidUsername(err), tc.username)
			}
		}
	})
}
