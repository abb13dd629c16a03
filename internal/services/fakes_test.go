package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/store"
	"github.com/filmchain/track-shorts/internal/youtube"
)

var errBoom = errors.New("boom")

// fakeShortStore keeps records in memory and mirrors the Postgres store's
// error kinds.
type fakeShortStore struct {
	rows   map[string]*models.Short
	order  []string
	nextID int64

	// hideExisting makes Exists report false so the insert path is the one
	// that detects duplicates.
	hideExisting bool
	updateErr    error
	failApplyOn  int
	applyCalls   int
	deletes      []string
	lastLimit    int
}

func newFakeShortStore() *fakeShortStore {
	return &fakeShortStore{rows: map[string]*models.Short{}}
}

func (f *fakeShortStore) seed(videoID string, views int64, hashtags string) {
	short := &models.Short{VideoID: videoID, URL: "https://youtu.be/" + videoID, ViewCount: views}
	if hashtags != "" {
		short.Hashtags = &hashtags
	}
	if err := f.CreateShort(context.Background(), short); err != nil {
		panic(err)
	}
}

func (f *fakeShortStore) Exists(_ context.Context, videoID string) (bool, error) {
	if f.hideExisting {
		return false, nil
	}
	_, ok := f.rows[videoID]
	return ok, nil
}

func (f *fakeShortStore) CreateShort(_ context.Context, short *models.Short) error {
	if _, ok := f.rows[short.VideoID]; ok {
		return apperror.Duplicate(short.VideoID)
	}
	f.nextID++
	short.ID = f.nextID
	short.CreatedAt = time.Now()
	short.UpdatedAt = short.CreatedAt

	stored := *short
	f.rows[short.VideoID] = &stored
	f.order = append(f.order, short.VideoID)
	return nil
}

func (f *fakeShortStore) GetShortByVideoID(_ context.Context, videoID string) (*models.Short, error) {
	row, ok := f.rows[videoID]
	if !ok {
		return nil, apperror.VideoNotFound(videoID)
	}
	short := *row
	return &short, nil
}

func (f *fakeShortStore) UpdateShortStats(_ context.Context, short *models.Short) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	row, ok := f.rows[short.VideoID]
	if !ok {
		return apperror.VideoNotFound(short.VideoID)
	}
	row.ViewCount = short.ViewCount
	row.LikeCount = short.LikeCount
	row.Title = short.Title
	row.Hashtags = short.Hashtags
	row.UpdatedAt = time.Now()
	short.UpdatedAt = row.UpdatedAt
	return nil
}

func (f *fakeShortStore) DeleteShort(_ context.Context, videoID string) error {
	f.deletes = append(f.deletes, videoID)
	delete(f.rows, videoID)
	for i, id := range f.order {
		if id == videoID {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeShortStore) ListVideoIDs(context.Context) ([]string, error) {
	return append([]string(nil), f.order...), nil
}

func (f *fakeShortStore) ApplyStatsBatch(_ context.Context, updates []store.StatsUpdate) (int, error) {
	f.applyCalls++
	if f.failApplyOn == f.applyCalls {
		return 0, errBoom
	}

	n := 0
	for _, u := range updates {
		row, ok := f.rows[u.VideoID]
		if !ok {
			continue
		}
		row.ViewCount = u.ViewCount
		row.LikeCount = u.LikeCount
		if u.Title != nil {
			row.Title = u.Title
		}
		if u.Hashtags != nil {
			row.Hashtags = u.Hashtags
		}
		n++
	}
	return n, nil
}

func (f *fakeShortStore) matching(tag, required string) []models.Short {
	var out []models.Short
	for _, id := range f.order {
		row := f.rows[id]
		if row.Hashtags == nil {
			continue
		}
		if youtube.HasHashtag(*row.Hashtags, tag) && youtube.HasHashtag(*row.Hashtags, required) {
			out = append(out, *row)
		}
	}
	return out
}

func (f *fakeShortStore) SumViewsByHashtag(_ context.Context, tag, required string) (int64, error) {
	var total int64
	for _, s := range f.matching(tag, required) {
		total += s.ViewCount
	}
	return total, nil
}

func (f *fakeShortStore) ListShortsByHashtag(_ context.Context, tag, required string, limit int) ([]models.Short, error) {
	f.lastLimit = limit
	out := f.matching(tag, required)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ViewCount > out[j].ViewCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeFetcher answers from a fixed table. When err is set it fails the
// call numbered errOnCall, or every call if errOnCall is zero.
type fakeFetcher struct {
	stats     map[string]youtube.VideoStats
	err       error
	errOnCall int
	calls     [][]string
}

func (f *fakeFetcher) FetchVideoStats(_ context.Context, ids []string) (map[string]youtube.VideoStats, error) {
	f.calls = append(f.calls, append([]string(nil), ids...))
	if f.err != nil && (f.errOnCall == 0 || f.errOnCall == len(f.calls)) {
		return nil, f.err
	}

	result := map[string]youtube.VideoStats{}
	for _, id := range ids {
		if st, ok := f.stats[id]; ok {
			result[id] = st
		}
	}
	return result, nil
}

type fakeSnapshots struct {
	recorded []models.ViewSnapshot
	err      error
}

func (f *fakeSnapshots) RecordSnapshots(_ context.Context, snapshots []models.ViewSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, snapshots...)
	return nil
}

func (f *fakeSnapshots) GetSnapshots(_ context.Context, videoID string) ([]models.ViewSnapshot, error) {
	out := []models.ViewSnapshot{}
	for i := len(f.recorded) - 1; i >= 0; i-- {
		if f.recorded[i].VideoID == videoID {
			out = append(out, f.recorded[i])
		}
	}
	return out, nil
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocker) Acquire(context.Context, string, time.Duration) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	f.acquired++
	return true, nil
}

func (f *fakeLocker) Release(context.Context, string) error {
	f.held = false
	f.released++
	return nil
}

func strPtr(s string) *string {
	return &s
}
