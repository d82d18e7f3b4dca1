package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/repository"
	"github.com/bindlabs/bind/utils"
)

// Asset slots a profile carries
const (
	AssetSlotAvatar     = "avatar"
	AssetSlotBackground = "background"
)

// ObjectStorage stores profile assets under opaque keys and serves them at
// public URLs. Delete takes the URL Upload returned.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// AssetFlow manages the avatar and background image slots of a profile.
type AssetFlow interface {
	ReplaceAsset(ctx context.Context, userID, slot string, data []byte, metadata *ClientMetadata) (*dto.UploadAssetResponse, error)
	ClearAsset(ctx context.Context, userID, slot string, metadata *ClientMetadata) error
}

type AssetFlowImpl struct {
	profileRepo repository.ProfileRepository
	storage     ObjectStorage
}

func NewAssetFlow(
	profileRepo repository.ProfileRepository,
	storage ObjectStorage,
) AssetFlow {
	return &AssetFlowImpl{
		profileRepo: profileRepo,
		storage:     storage,
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".img"
	}
}

// downscaleAvatar re-encodes the avatar as JPEG, scaled down so neither
// dimension exceeds the avatar limit. Images already within bounds are
// still re-encoded so stored avatars have a uniform format.
func downscaleAvatar(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidAssetType
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > utils.AvatarMaxDimension || h > utils.AvatarMaxDimension {
		scale := float64(utils.AvatarMaxDimension) / float64(max(w, h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// ReplaceAsset uploads a new image into the slot and points the profile at
// it. The upload happens before the profile row is touched; if the profile
// update then fails, the freshly uploaded object is deleted so storage does
// not accumulate unreferenced files. The previous object, if any, is
// deleted best-effort after the swap.
func (f *AssetFlowImpl) ReplaceAsset(ctx context.Context, userID, slot string, data []byte, metadata *ClientMetadata) (*dto.UploadAssetResponse, error) {
	if slot != AssetSlotAvatar && slot != AssetSlotBackground {
		return nil, ErrInvalidAssetSlot
	}
	if len(data) == 0 {
		return nil, ErrInvalidAssetType
	}
	if len(data) > utils.MaxAssetSize {
		return nil, ErrAssetTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidAssetType
	}

	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	if slot == AssetSlotAvatar {
		data, err = downscaleAvatar(data)
		if err != nil {
			return nil, err
		}
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf("%ss/%s/%d%s", slot, profile.UUID, utils.UTCNowUnixNano(), extensionFor(contentType))
	url, err := f.storage.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, NewBusinessError("ASSET_UPLOAD_FAILED", "Failed to upload asset", ErrStorageUnavailable)
	}

	var previous *string
	switch slot {
	case AssetSlotAvatar:
		previous = profile.AvatarURL
		profile.AvatarURL = &url
	case AssetSlotBackground:
		previous = profile.BackgroundImageURL
		profile.BackgroundImageURL = &url
	}
	profile.UpdatedAt = utils.UTCNow()

	if err := f.profileRepo.Update(ctx, profile); err != nil {
		if delErr := f.storage.Delete(ctx, url); delErr != nil {
			log.Printf("failed to delete unreferenced asset %s: %v", url, delErr)
		}
		return nil, NewBusinessError("PROFILE_UPDATE_FAILED", "Failed to update profile", err)
	}

	if previous != nil && *previous != "" {
		if err := f.storage.Delete(ctx, *previous); err != nil {
			log.Printf("failed to delete replaced asset %s: %v", *previous, err)
		}
	}

	return &dto.UploadAssetResponse{
		Message: "Asset uploaded",
		Slot:    slot,
		URL:     url,
	}, nil
}

// ClearAsset nulls the slot's reference. The stored object is deleted
// best-effort; a storage failure is logged and the reference is cleared
// regardless, so the profile never points at an object marked for removal.
func (f *AssetFlowImpl) ClearAsset(ctx context.Context, userID, slot string, metadata *ClientMetadata) error {
	if slot != AssetSlotAvatar && slot != AssetSlotBackground {
		return ErrInvalidAssetSlot
	}

	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return err
	}

	var previous *string
	switch slot {
	case AssetSlotAvatar:
		previous = profile.AvatarURL
		profile.AvatarURL = nil
	case AssetSlotBackground:
		previous = profile.BackgroundImageURL
		profile.BackgroundImageURL = nil
	}
	if previous == nil || *previous == "" {
		return ErrNoAssetToClear
	}

	if err := f.storage.Delete(ctx, *previous); err != nil {
		log.Printf("failed to delete cleared asset %s: %v", *previous, err)
	}

	profile.UpdatedAt = utils.UTCNow()
	if err := f.profileRepo.Update(ctx, profile); err != nil {
		return NewBusinessError("PROFILE_UPDATE_FAILED", "Failed to update profile", err)
	}

	return nil
}
