package businessflow

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingutil "github.com/bindlabs/bind/testing"
	"github.com/bindlabs/bind/utils"
)

// pngBytes renders a small gradient so the encoder has real pixel data.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestReplaceAsset(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	t.Run("AvatarIsDownscaledAndStored", func(t *testing.T) {
		storage := newRecordingStorage()
		flow := NewAssetFlow(env.profileRepo, storage)
		profile, err := testingutil.CreateTestProfile(env.db, "avatar")
		require.NoError(t, err)

		resp, err := flow.ReplaceAsset(ctx, profile.UserID, AssetSlotAvatar, pngBytes(t, 1024, 640), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, AssetSlotAvatar, resp.Slot)
		assert.NotEmpty(t, resp.URL)

		stored, err := env.profileRepo.ByUserID(ctx, profile.UserID)
		require.NoError(t, err)
		require.NotNil(t, stored.AvatarURL)
		assert.Equal(t, resp.URL, *stored.AvatarURL)

		// Avatars are re-encoded as JPEG with neither dimension above the limit.
		data, ok := storage.uploads[resp.URL]
		require.True(t, ok)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.LessOrEqual(t, cfg.Width, utils.AvatarMaxDimension)
		assert.LessOrEqual(t, cfg.Height, utils.AvatarMaxDimension)
		assert.True(t, strings.HasSuffix(resp.URL, ".jpg"))
	})

	t.Run("SmallAvatarKeepsDimensions", func(t *testing.T) {
		storage := newRecordingStorage()
		flow := NewAssetFlow(env.profileRepo, storage)
		profile, err := testingutil.CreateTestProfile(env.db, "avatar-small")
		require.NoError(t, err)

		resp, err := flow.ReplaceAsset(ctx, profile.UserID, AssetSlotAvatar, pngBytes(t, 200, 100), testMetadata())
		require.NoError(t, err)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(storage.uploads[resp.URL]))
		require.NoError(t, err)
		assert.Equal(t, 200, cfg.Width)
		assert.Equal(t, 100, cfg.Height)
	})

	t.Run("ReplaceDeletesPreviousObject", func(t *testing.T) {
		storage := newRecordingStorage()
		flow := NewAssetFlow(env.profileRepo, storage)
		profile, err := testingutil.CreateTestProfile(env.db, "replace")
		require.NoError(t, err)

		first, err := flow.ReplaceAsset(ctx, profile.UserID, AssetSlotBackground, pngBytes(t, 64, 64), testMetadata())
		require.NoError(t, err)

		second, err := flow.ReplaceAsset(ctx, profile.UserID, AssetSlotBackground, pngBytes(t, 64, 64), testMetadata())
		require.NoError(t, err)
		assert.NotEqual(t, first.URL, second.URL)
		assert.Contains(t, storage.deletes, first.URL)

		stored, err := env.profileRepo.ByUserID(ctx, profile.UserID)
		require.NoError(t, err)
		require.NotNil(t, stored.BackgroundImageURL)
		assert.Equal(t, second.URL, *stored.BackgroundImageURL)
	})

	t.Run("FailedProfileUpdateRemovesFreshUpload", func(t *testing.T) {
		storage := newRecordingStorage()
		profile, err := testingutil.CreateTestProfile(env.db, "rollback")
		require.NoError(t, err)

		flow := NewAssetFlow(&failingUpdateProfileRepo{ProfileRepository: env.profileRepo}, storage)
		_, err = flow.ReplaceAsset(ctx, profile.UserID, AssetSlotBackground, pngBytes(t, 64, 64), testMetadata())
		require.Error(t, err)

		assert.Empty(t, storage.uploads)
		require.Len(t, storage.deletes, 1)
	})

	t.Run("RejectionCases", func(t *testing.T) {
		storage := newRecordingStorage()
		flow := NewAssetFlow(env.profileRepo, storage)
		profile, err := testingutil.CreateTestProfile(env.db, "reject")
		require.NoError(t, err)

		_, err = flow.ReplaceAsset(ctx, profile.UserID, "banner", pngBytes(t, 8, 8), testMetadata())
		assert.True(t, IsInvalidAssetSlot(err))

		_, err = flow.ReplaceAsset(ctx, profile.UserID, AssetSlotAvatar, nil, testMetadata())
		assert.True(t, IsInvalidAssetType(err))

		_, err = flow.ReplaceAsset(ctx, profile.UserID, AssetSlotAvatar, []byte("plain text, not an image"), testMetadata())
		assert.True(t, IsInvalidAssetType(err))

		_, err = flow.ReplaceAsset(ctx, profile.UserID, AssetSlotAvatar, make([]byte, utils.MaxAssetSize+1), testMetadata())
		assert.True(t, IsAssetTooLarge(err))

		assert.Empty(t, storage.uploads)
	})

	t.Run("StorageFailureSurfaces", func(t *testing.T) {
		storage := newRecordingStorage()
		storage.uploadErr = context.DeadlineExceeded
		flow := NewAssetFlow(env.profileRepo, storage)
		profile, err := testingutil.CreateTestProfile(env.db, "storage-down")
		require.NoError(t, err)

		_, err = flow.ReplaceAsset(ctx, profile.UserID, AssetSlotBackground, pngBytes(t, 8, 8), testMetadata())
		assert.True(t, IsStorageUnavailable(err))
	})
}

func TestClearAsset(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	t.Run("ClearsSlotAndDeletesObject", func(t *testing.T) {
		storage := newRecordingStorage()
		flow := NewAssetFlow(env.profileRepo, storage)
		profile, err := testingutil.CreateTestProfile(env.db, "clear")
		require.NoError(t, err)

		resp, err := flow.ReplaceAsset(ctx, profile.UserID, AssetSlotAvatar, pngBytes(t, 32, 32), testMetadata())
		require.NoError(t, err)

		require.NoError(t, flow.ClearAsset(ctx, profile.UserID, AssetSlotAvatar, testMetadata()))
		assert.Contains(t, storage.deletes, resp.URL)

		stored, err := env.profileRepo.ByUserID(ctx, profile.UserID)
		require.NoError(t, err)
		assert.Nil(t, stored.AvatarURL)
	})

	t.Run("NothingToClear", func(t *testing.T) {
		flow := NewAssetFlow(env.profileRepo, newRecordingStorage())
		profile, err := testingutil.CreateTestProfile(env.db, "clear-empty")
		require.NoError(t, err)

		err = flow.ClearAsset(ctx, profile.UserID, AssetSlotBackground, testMetadata())
		assert.ErrorIs(t, err, ErrNoAssetToClear)
	})

	t.Run("InvalidSlot", func(t *testing.T) {
		flow := NewAssetFlow(env.profileRepo, newRecordingStorage())
		err := flow.ClearAsset(ctx, "whoever", "banner", testMetadata())
		assert.True(t, IsInvalidAssetSlot(err))
	})
}
