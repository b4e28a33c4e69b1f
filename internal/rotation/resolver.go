package rotation

import (
	"context"
	"time"

	"github.com/lumen-ar/backend/internal/models"
)

// Resolver answers "which video should this content item serve right now".
// It is read-only and holds no locks; a stale read during an in-flight
// rotation is acceptable eventual consistency.
type Resolver struct {
	store ContentStore
}

// NewResolver creates a resolver over the given store.
func NewResolver(store ContentStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve applies the priority rules in order:
//  1. pinned override, when the pinned video still exists
//  2. an active video whose validity window contains now
//  3. any active video
//  4. fallback by rotation order
//
// Each tier ties are broken by smallest rotation order (nils last), then
// smallest id. ErrNoActiveVideo when the content has no videos at all.
func (r *Resolver) Resolve(ctx context.Context, contentID int64, now time.Time) (*models.Video, error) {
	content, err := r.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrNoActiveVideo
	}
	videos, err := r.store.ListVideos(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, ErrNoActiveVideo
	}

	if content.ActiveVideoID != nil {
		for i := range videos {
			if videos[i].ID == *content.ActiveVideoID {
				return &videos[i], nil
			}
		}
	}

	now = now.UTC()
	if v := pickBest(videos, func(v *models.Video) bool { return v.IsActive && v.InWindow(now) }); v != nil {
		return v, nil
	}
	if v := pickBest(videos, func(v *models.Video) bool { return v.IsActive }); v != nil {
		return v, nil
	}
	if v := pickBest(videos, func(v *models.Video) bool { return true }); v != nil {
		return v, nil
	}
	return nil, ErrNoActiveVideo
}

func pickBest(videos []models.Video, match func(*models.Video) bool) *models.Video {
	var best *models.Video
	for i := range videos {
		v := &videos[i]
		if !match(v) {
			continue
		}
		if best == nil || orderLess(v, best) {
			best = v
		}
	}
	return best
}

// orderLess sorts by rotation order ascending with nil orders last, then by id.
func orderLess(a, b *models.Video) bool {
	switch {
	case a.RotationOrder == nil && b.RotationOrder == nil:
		return a.ID < b.ID
	case a.RotationOrder == nil:
		return false
	case b.RotationOrder == nil:
		return true
	case *a.RotationOrder != *b.RotationOrder:
		return *a.RotationOrder < *b.RotationOrder
	default:
		return a.ID < b.ID
	}
}
