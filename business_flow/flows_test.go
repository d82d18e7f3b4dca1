package businessflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
	testingutil "github.com/bindlabs/bind/testing"
)

// flowEnv bundles a fresh in-memory database with the repositories the flow
// tests need.
type flowEnv struct {
	db          *gorm.DB
	profileRepo repository.ProfileRepository
	linkRepo    repository.LinkRepository
	eventRepo   repository.AnalyticsEventRepository
	auditRepo   repository.AuditLogRepository
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()
	db, err := testingutil.SetupSqliteDB()
	require.NoError(t, err)
	return &flowEnv{
		db:          db,
		profileRepo: repository.NewProfileRepository(db),
		linkRepo:    repository.NewLinkRepository(db),
		eventRepo:   repository.NewAnalyticsEventRepository(db),
		auditRepo:   repository.NewAuditLogRepository(db),
	}
}

func testMetadata() *ClientMetadata {
	m := NewClientMetadata("203.0.113.9", "test-agent")
	m.SetRequestID("req-test")
	return m
}

// fakeThrottle is a ViewThrottle with scripted answers.
type fakeThrottle struct {
	first bool
	err   error
	calls int
}

func (f *fakeThrottle) FirstView(ctx context.Context, profileID uint, visitorKey string) (bool, error) {
	f.calls++
	return f.first, f.err
}

// recordingStorage captures uploads and deletes in memory.
type recordingStorage struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	deletes   []string
	uploadErr error
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{uploads: make(map[string][]byte)}
}

func (s *recordingStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	url := "https://cdn.test/" + key
	s.uploads[url] = data
	return url, nil
}

func (s *recordingStorage) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, url)
	delete(s.uploads, url)
	return nil
}

// failingUpdateProfileRepo wraps a real profile repository but refuses writes
// through Update.
type failingUpdateProfileRepo struct {
	repository.ProfileRepository
}

func (r *failingUpdateProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	return errors.New("update rejected")
}

// capturingProfileFlow records ApplyCustomization calls for coalescer tests.
type capturingProfileFlow struct {
	mu    sync.Mutex
	calls []*dto.UpdateCustomizationRequest
}

func (f *capturingProfileFlow) GetProfile(ctx context.Context, userID string) (*dto.GetProfileResponse, error) {
	return &dto.GetProfileResponse{}, nil
}

func (f *capturingProfileFlow) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	return &dto.GetProfileResponse{}, nil
}

func (f *capturingProfileFlow) ApplyCustomization(ctx context.Context, userID string, req *dto.UpdateCustomizationRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return &dto.GetProfileResponse{}, nil
}

func (f *capturingProfileFlow) EquipBadges(ctx context.Context, userID string, req *dto.EquipBadgesRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	return &dto.GetProfileResponse{}, nil
}

func (f *capturingProfileFlow) captured() []*dto.UpdateCustomizationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*dto.UpdateCustomizationRequest, len(f.calls))
	copy(out, f.calls)
	return out
}
