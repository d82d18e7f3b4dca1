package businessflow

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/utils"
)

// CustomizationCoalescer batches rapid-fire customization edits from a live
// preview session. Submissions for a user are merged field-wise, and the
// merged update is flushed once the user has been quiet for the configured
// window, so sliding an opacity control produces one write instead of
// hundreds.
type CustomizationCoalescer struct {
	flow  ProfileFlow
	quiet time.Duration

	mu      sync.Mutex
	pending map[string]*pendingCustomization
}

type pendingCustomization struct {
	req       *dto.UpdateCustomizationRequest
	metadata  *ClientMetadata
	lastTouch time.Time
}

func NewCustomizationCoalescer(flow ProfileFlow, quiet time.Duration) *CustomizationCoalescer {
	if quiet <= 0 {
		quiet = utils.CoalescerQuietWindow
	}
	return &CustomizationCoalescer{
		flow:    flow,
		quiet:   quiet,
		pending: make(map[string]*pendingCustomization),
	}
}

// mergeCustomization overlays src onto dst, later non-nil fields winning.
func mergeCustomization(dst, src *dto.UpdateCustomizationRequest) {
	if src.AccentColor != nil {
		dst.AccentColor = src.AccentColor
	}
	if src.TextColor != nil {
		dst.TextColor = src.TextColor
	}
	if src.BackgroundColor != nil {
		dst.BackgroundColor = src.BackgroundColor
	}
	if src.IconColor != nil {
		dst.IconColor = src.IconColor
	}
	if src.ProfileOpacity != nil {
		dst.ProfileOpacity = src.ProfileOpacity
	}
	if src.ProfileBlur != nil {
		dst.ProfileBlur = src.ProfileBlur
	}
	if src.EnableProfileGradient != nil {
		dst.EnableProfileGradient = src.EnableProfileGradient
	}
	if src.MonochromeIcons != nil {
		dst.MonochromeIcons = src.MonochromeIcons
	}
	if src.AnimatedTitle != nil {
		dst.AnimatedTitle = src.AnimatedTitle
	}
	if src.SwapBoxColors != nil {
		dst.SwapBoxColors = src.SwapBoxColors
	}
	if src.VolumeControl != nil {
		dst.VolumeControl = src.VolumeControl
	}
	if src.UseDiscordAvatar != nil {
		dst.UseDiscordAvatar = src.UseDiscordAvatar
	}
	if src.DiscordAvatarDecoration != nil {
		dst.DiscordAvatarDecoration = src.DiscordAvatarDecoration
	}
	if src.DiscordPresence != nil {
		dst.DiscordPresence = src.DiscordPresence
	}
	if src.BackgroundEffect != nil {
		dst.BackgroundEffect = src.BackgroundEffect
	}
	if src.BackgroundImageURL != nil {
		dst.BackgroundImageURL = src.BackgroundImageURL
	}
}

// Submit queues a partial update for the user and restarts their quiet
// timer. The call returns immediately; persistence happens on flush.
func (c *CustomizationCoalescer) Submit(userID string, req *dto.UpdateCustomizationRequest, metadata *ClientMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.pending[userID]
	if !ok {
		entry = &pendingCustomization{req: &dto.UpdateCustomizationRequest{}}
		c.pending[userID] = entry
	}
	mergeCustomization(entry.req, req)
	entry.metadata = metadata
	entry.lastTouch = utils.UTCNow()
}

// takeDue removes and returns the entries whose quiet window has elapsed.
// With force set, every pending entry is taken regardless of age.
func (c *CustomizationCoalescer) takeDue(force bool) map[string]*pendingCustomization {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := utils.UTCNow()
	due := make(map[string]*pendingCustomization)
	for userID, entry := range c.pending {
		if force || now.Sub(entry.lastTouch) >= c.quiet {
			due[userID] = entry
			delete(c.pending, userID)
		}
	}
	return due
}

func (c *CustomizationCoalescer) flush(due map[string]*pendingCustomization) {
	for userID, entry := range due {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := c.flow.ApplyCustomization(ctx, userID, entry.req, entry.metadata)
		cancel()
		if err != nil {
			log.Printf("coalesced customization flush failed for user %s: %v", userID, err)
		}
	}
}

// Start launches the flush loop and returns a stop function. Stopping
// drains every pending entry before returning.
func (c *CustomizationCoalescer) Start() func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(c.quiet / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.flush(c.takeDue(false))
			case <-done:
				c.flush(c.takeDue(true))
				return
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
