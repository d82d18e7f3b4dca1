package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xuri/excelize/v2"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
	"github.com/bindlabs/bind/utils"
)

var eventsRecorded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bind_analytics_events_recorded_total",
		Help: "Traffic events appended to the analytics log, by event type",
	},
	[]string{"event_type"},
)

var eventsThrottled = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "bind_analytics_views_throttled_total",
		Help: "Profile views suppressed by the repeat-visitor throttle",
	},
)

// ViewThrottle decides whether a visitor's profile view should be counted.
// FirstView returns true when no view from this visitor was recorded for the
// profile within the throttle window.
type ViewThrottle interface {
	FirstView(ctx context.Context, profileID uint, visitorKey string) (bool, error)
}

// AnalyticsFlow appends traffic events and aggregates them per profile.
type AnalyticsFlow interface {
	RecordEvent(ctx context.Context, req *dto.RecordEventRequest, metadata *ClientMetadata) error
	Aggregate(ctx context.Context, userID string, days int) (*dto.AnalyticsResponse, error)
	ExportAggregate(ctx context.Context, userID string, days int) (*bytes.Buffer, string, error)
}

type AnalyticsFlowImpl struct {
	profileRepo repository.ProfileRepository
	linkRepo    repository.LinkRepository
	eventRepo   repository.AnalyticsEventRepository
	throttle    ViewThrottle
}

func NewAnalyticsFlow(
	profileRepo repository.ProfileRepository,
	linkRepo repository.LinkRepository,
	eventRepo repository.AnalyticsEventRepository,
	throttle ViewThrottle,
) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		profileRepo: profileRepo,
		linkRepo:    linkRepo,
		eventRepo:   eventRepo,
		throttle:    throttle,
	}
}

// RecordEvent appends one traffic event. The write path is best-effort:
// callers treat any returned error as log-only and never surface it to the
// visitor. Repeat profile views from the same visitor inside the throttle
// window are dropped; when the throttle backend is unreachable the view is
// recorded anyway.
func (f *AnalyticsFlowImpl) RecordEvent(ctx context.Context, req *dto.RecordEventRequest, metadata *ClientMetadata) error {
	profile, err := f.profileRepo.ByUUID(ctx, req.ProfileID)
	if err != nil {
		return NewBusinessError("EVENT_PROFILE_FETCH_FAILED", "Failed to fetch profile", err)
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	event := &models.AnalyticsEvent{
		UUID:      uuid.New(),
		ProfileID: profile.ID,
		EventType: req.EventType,
	}
	if metadata != nil {
		if metadata.UserAgent != "" {
			event.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.IPAddress != "" {
			event.IP = utils.ToPtr(metadata.IPAddress)
		}
	}

	switch req.EventType {
	case models.EventTypeProfileView:
		if f.throttle != nil && metadata != nil {
			first, err := f.throttle.FirstView(ctx, profile.ID, metadata.VisitorKey())
			if err != nil {
				log.Printf("view throttle unavailable, recording anyway: %v", err)
			} else if !first {
				eventsThrottled.Inc()
				return nil
			}
		}
	case models.EventTypeLinkClick:
		if req.LinkID == nil {
			return ErrLinkNotFound
		}
		link, err := f.linkRepo.ByUUID(ctx, *req.LinkID)
		if err != nil {
			return NewBusinessError("EVENT_LINK_FETCH_FAILED", "Failed to fetch link", err)
		}
		if link == nil || link.ProfileID != profile.ID {
			return ErrLinkNotFound
		}
		event.LinkID = utils.ToPtr(link.ID)
	default:
		return NewBusinessErrorf("UNKNOWN_EVENT_TYPE", "Unknown event type %q", nil, req.EventType)
	}

	if err := f.eventRepo.Save(ctx, event); err != nil {
		return NewBusinessError("EVENT_SAVE_FAILED", "Failed to record event", err)
	}
	eventsRecorded.WithLabelValues(req.EventType).Inc()
	return nil
}

// windowStart returns the UTC midnight opening a trailing window of the
// given number of days, today included.
func windowStart(now time.Time, days int) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -(days - 1))
}

// Aggregate summarizes the caller's traffic over a trailing window. The
// per-day series covers every day of the window, zero-filled where the log
// has no rows, ending on the current day.
func (f *AnalyticsFlowImpl) Aggregate(ctx context.Context, userID string, days int) (*dto.AnalyticsResponse, error) {
	if days == 0 {
		days = utils.DefaultAnalyticsWindowDays
	}
	if days < 1 || days > utils.MaxAnalyticsWindowDays {
		return nil, ErrInvalidWindow
	}

	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	since := windowStart(now, days)

	totalViews, err := f.eventRepo.CountByType(ctx, profile.ID, models.EventTypeProfileView, since)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count views", err)
	}
	totalClicks, err := f.eventRepo.CountByType(ctx, profile.ID, models.EventTypeLinkClick, since)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count clicks", err)
	}

	rows, err := f.eventRepo.DailyCounts(ctx, profile.ID, since)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to aggregate daily counts", err)
	}

	type dayTotals struct {
		views  int64
		clicks int64
	}
	byDate := make(map[string]*dayTotals, len(rows))
	for _, row := range rows {
		// DATE() formatting differs slightly across drivers; the first
		// ten characters are always YYYY-MM-DD.
		date := row.Date
		if len(date) > 10 {
			date = date[:10]
		}
		t, ok := byDate[date]
		if !ok {
			t = &dayTotals{}
			byDate[date] = t
		}
		switch row.EventType {
		case models.EventTypeProfileView:
			t.views += row.Count
		case models.EventTypeLinkClick:
			t.clicks += row.Count
		}
	}

	series := make([]dto.DayStat, 0, days)
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02")
		stat := dto.DayStat{Date: date}
		if t, ok := byDate[date]; ok {
			stat.Views = t.views
			stat.Clicks = t.clicks
		}
		series = append(series, stat)
	}

	clickRows, err := f.eventRepo.TopLinks(ctx, profile.ID, since, utils.TopLinksLimit)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to rank links", err)
	}
	links, err := f.linkRepo.ByProfileID(ctx, profile.ID)
	if err != nil {
		return nil, NewBusinessError("LINK_FETCH_FAILED", "Failed to fetch links", err)
	}
	linkByID := make(map[uint]*models.Link, len(links))
	for _, l := range links {
		linkByID[l.ID] = l
	}
	topLinks := make([]dto.TopLinkDTO, 0, len(clickRows))
	for _, row := range clickRows {
		link, ok := linkByID[row.LinkID]
		if !ok {
			// Deleted links keep their historical clicks but are not listed.
			continue
		}
		topLinks = append(topLinks, dto.TopLinkDTO{
			LinkID: link.UUID.String(),
			Title:  link.Title,
			URL:    link.URL,
			Clicks: row.Count,
		})
	}
	// Ties are broken on the public link id, not the internal row id the
	// query grouped by.
	sort.SliceStable(topLinks, func(i, j int) bool {
		if topLinks[i].Clicks != topLinks[j].Clicks {
			return topLinks[i].Clicks > topLinks[j].Clicks
		}
		return topLinks[i].LinkID < topLinks[j].LinkID
	})

	return &dto.AnalyticsResponse{
		Message:     "Analytics aggregated",
		WindowDays:  days,
		TotalViews:  totalViews,
		TotalClicks: totalClicks,
		Days:        series,
		TopLinks:    topLinks,
	}, nil
}

// ExportAggregate renders the aggregate as an XLSX workbook with one sheet
// of daily totals and one of top links.
func (f *AnalyticsFlowImpl) ExportAggregate(ctx context.Context, userID string, days int) (*bytes.Buffer, string, error) {
	agg, err := f.Aggregate(ctx, userID, days)
	if err != nil {
		return nil, "", err
	}

	wb := excelize.NewFile()
	defer wb.Close()

	const dailySheet = "Daily"
	idx, err := wb.NewSheet(dailySheet)
	if err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build export", err)
	}
	wb.SetActiveSheet(idx)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build export", err)
	}

	if err := wb.SetSheetRow(dailySheet, "A1", &[]any{"Date", "Views", "Clicks"}); err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build export", err)
	}
	for i, day := range agg.Days {
		cell := fmt.Sprintf("A%d", i+2)
		if err := wb.SetSheetRow(dailySheet, cell, &[]any{day.Date, day.Views, day.Clicks}); err != nil {
			return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build export", err)
		}
	}

	const linksSheet = "Top Links"
	if _, err := wb.NewSheet(linksSheet); err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build export", err)
	}
	if err := wb.SetSheetRow(linksSheet, "A1", &[]any{"Title", "URL", "Clicks"}); err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build export", err)
	}
	for i, link := range agg.TopLinks {
		cell := fmt.Sprintf("A%d", i+2)
		if err := wb.SetSheetRow(linksSheet, cell, &[]any{link.Title, link.URL, link.Clicks}); err != nil {
			return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build export", err)
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, "", NewBusinessError("EXPORT_FAILED", "Failed to build export", err)
	}
	filename := fmt.Sprintf("analytics-%dd-%s.xlsx", agg.WindowDays, utils.UTCNowFormat("2006-01-02"))
	return buf, filename, nil
}
