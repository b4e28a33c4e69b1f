package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumen-ar/backend/internal/models"
)

type fakeContentStore struct {
	content *models.ContentItem
	videos  []models.Video
}

func (f *fakeContentStore) GetContent(_ context.Context, _ int64) (*models.ContentItem, error) {
	return f.content, nil
}

func (f *fakeContentStore) ListVideos(_ context.Context, _ int64) ([]models.Video, error) {
	return f.videos, nil
}

func intPtr(n int) *int              { return &n }
func timePtr(t time.Time) *time.Time { return &t }

var resolveNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func resolve(t *testing.T, store *fakeContentStore) (*models.Video, error) {
	t.Helper()
	return NewResolver(store).Resolve(context.Background(), 100, resolveNow)
}

func TestResolvePinnedWins(t *testing.T) {
	pinned := int64(12)
	store := &fakeContentStore{
		content: &models.ContentItem{ID: 100, ActiveVideoID: &pinned},
		videos: []models.Video{
			{ID: 10, ContentID: 100, IsActive: true},
			{ID: 12, ContentID: 100},
		},
	}
	v, err := resolve(t, store)
	require.NoError(t, err)
	require.Equal(t, int64(12), v.ID, "pin overrides the active flag")
}

func TestResolvePinnedToDeletedVideoFallsThrough(t *testing.T) {
	gone := int64(99)
	store := &fakeContentStore{
		content: &models.ContentItem{ID: 100, ActiveVideoID: &gone},
		videos: []models.Video{
			{ID: 10, ContentID: 100, IsActive: true},
		},
	}
	v, err := resolve(t, store)
	require.NoError(t, err)
	require.Equal(t, int64(10), v.ID)
}

func TestResolveWindowBeatsPlainActive(t *testing.T) {
	store := &fakeContentStore{
		content: &models.ContentItem{ID: 100},
		videos: []models.Video{
			{ID: 10, ContentID: 100, IsActive: true},
			{
				ID: 11, ContentID: 100, IsActive: true,
				ScheduleStart: timePtr(resolveNow.Add(-time.Hour)),
				ScheduleEnd:   timePtr(resolveNow.Add(time.Hour)),
			},
		},
	}
	v, err := resolve(t, store)
	require.NoError(t, err)
	require.Equal(t, int64(11), v.ID)
}

func TestResolveWindowIsHalfOpen(t *testing.T) {
	store := &fakeContentStore{
		content: &models.ContentItem{ID: 100},
		videos: []models.Video{
			{ID: 10, ContentID: 100, IsActive: true},
			{
				ID: 11, ContentID: 100, IsActive: true,
				ScheduleStart: timePtr(resolveNow.Add(-time.Hour)),
				ScheduleEnd:   timePtr(resolveNow), // window just closed
			},
		},
	}
	v, err := resolve(t, store)
	require.NoError(t, err)
	require.Equal(t, int64(10), v.ID, "an expired window does not match")
}

func TestResolveInactiveWindowIgnored(t *testing.T) {
	// Window tier requires the active flag too.
	store := &fakeContentStore{
		content: &models.ContentItem{ID: 100},
		videos: []models.Video{
			{
				ID: 10, ContentID: 100,
				ScheduleStart: timePtr(resolveNow.Add(-time.Hour)),
				ScheduleEnd:   timePtr(resolveNow.Add(time.Hour)),
			},
			{ID: 11, ContentID: 100, IsActive: true},
		},
	}
	v, err := resolve(t, store)
	require.NoError(t, err)
	require.Equal(t, int64(11), v.ID)
}

func TestResolveFallbackByRotationOrder(t *testing.T) {
	store := &fakeContentStore{
		content: &models.ContentItem{ID: 100},
		videos: []models.Video{
			{ID: 10, ContentID: 100, RotationOrder: intPtr(5)},
			{ID: 11, ContentID: 100, RotationOrder: intPtr(2)},
			{ID: 12, ContentID: 100}, // nil order sorts last
		},
	}
	v, err := resolve(t, store)
	require.NoError(t, err)
	require.Equal(t, int64(11), v.ID)
}

func TestResolveFallbackTieBreaksById(t *testing.T) {
	store := &fakeContentStore{
		content: &models.ContentItem{ID: 100},
		videos: []models.Video{
			{ID: 12, ContentID: 100, RotationOrder: intPtr(1)},
			{ID: 10, ContentID: 100, RotationOrder: intPtr(1)},
			{ID: 11, ContentID: 100},
		},
	}
	v, err := resolve(t, store)
	require.NoError(t, err)
	require.Equal(t, int64(10), v.ID)
}

func TestResolveFallbackAllNilOrders(t *testing.T) {
	store := &fakeContentStore{
		content: &models.ContentItem{ID: 100},
		videos: []models.Video{
			{ID: 12, ContentID: 100},
			{ID: 10, ContentID: 100},
		},
	}
	v, err := resolve(t, store)
	require.NoError(t, err)
	require.Equal(t, int64(10), v.ID, "smallest id wins when no orders are set")
}

func TestResolveNoVideos(t *testing.T) {
	store := &fakeContentStore{content: &models.ContentItem{ID: 100}}
	_, err := resolve(t, store)
	require.ErrorIs(t, err, ErrNoActiveVideo)
}

func TestResolveUnknownContent(t *testing.T) {
	store := &fakeContentStore{}
	_, err := resolve(t, store)
	require.ErrorIs(t, err, ErrNoActiveVideo)
}
