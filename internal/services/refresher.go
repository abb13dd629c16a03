package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/store"
	"github.com/filmchain/track-shorts/internal/store/analytics"
	"github.com/filmchain/track-shorts/internal/youtube"
)

const RefreshLockKey = "filmchain:refresh:lock"

type RefreshReport struct {
	Total   int  `json:"total"`
	Batches int  `json:"batches"`
	Updated int  `json:"updated"`
	Missing int  `json:"missing"`
	Skipped bool `json:"skipped"`
}

// Refresher re-fetches stats for every tracked video. Runs may repeat or
// overlap; each write overwrites the same fields.
type Refresher struct {
	shorts    store.ShortStore
	fetcher   youtube.StatsFetcher
	snapshots analytics.SnapshotStore
	locker    store.Locker
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewRefresher builds a Refresher. locker may be nil, in which case runs
// are not guarded against overlap.
func NewRefresher(
	shorts store.ShortStore,
	fetcher youtube.StatsFetcher,
	snapshots analytics.SnapshotStore,
	locker store.Locker,
	lockTTL time.Duration,
	logger *zap.Logger,
) *Refresher {
	return &Refresher{
		shorts:    shorts,
		fetcher:   fetcher,
		snapshots: snapshots,
		locker:    locker,
		lockTTL:   lockTTL,
		logger:    logger,
	}
}

// Run refreshes all records in batches of youtube.MaxBatchSize, one
// transaction per batch. The first failing batch stops the run; batches
// committed before it stay committed.
func (r *Refresher) Run(ctx context.Context) (RefreshReport, error) {
	report := RefreshReport{}

	if r.locker != nil {
		ok, err := r.locker.Acquire(ctx, RefreshLockKey, r.lockTTL)
		if err != nil {
			return report, err
		}
		if !ok {
			r.logger.Info("refresh already running, skipping")
			report.Skipped = true
			return report, nil
		}
		defer func() {
			if err := r.locker.Release(context.WithoutCancel(ctx), RefreshLockKey); err != nil {
				r.logger.Warn("failed to release refresh lock", zap.Error(err))
			}
		}()
	}

	ids, err := r.shorts.ListVideoIDs(ctx)
	if err != nil {
		return report, err
	}
	report.Total = len(ids)

	for i, batch := range youtube.Batch(ids, youtube.MaxBatchSize) {
		log := r.logger.With(zap.Int("batch", i+1), zap.Int("size", len(batch)))

		stats, err := r.fetcher.FetchVideoStats(ctx, batch)
		if err != nil {
			log.Error("failed to fetch batch stats", zap.Error(err))
			return report, fmt.Errorf("fetch batch %d: %w", i+1, err)
		}

		updates := make([]store.StatsUpdate, 0, len(stats))
		for _, id := range batch {
			st, ok := stats[id]
			if !ok {
				report.Missing++
				continue
			}
			updates = append(updates, store.StatsUpdate{
				VideoID:   id,
				ViewCount: st.ViewCount,
				LikeCount: st.LikeCount,
				Title:     st.Title,
				Hashtags:  st.Hashtags,
			})
		}

		n, err := r.shorts.ApplyStatsBatch(ctx, updates)
		if err != nil {
			log.Error("stats batch rolled back", zap.Error(err))
			return report, fmt.Errorf("apply batch %d: %w", i+1, err)
		}
		report.Updated += n
		report.Batches++

		r.recordSnapshots(ctx, updates)
	}

	r.logger.Info("refresh finished",
		zap.Int("total", report.Total),
		zap.Int("batches", report.Batches),
		zap.Int("updated", report.Updated),
		zap.Int("missing", report.Missing),
	)
	return report, nil
}

// RefreshOne fetches fresh stats for a single tracked video and stores them.
func (r *Refresher) RefreshOne(ctx context.Context, videoID string) (*models.Short, error) {
	short, err := r.shorts.GetShortByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	stats, err := r.fetcher.FetchVideoStats(ctx, []string{videoID})
	if err != nil {
		return nil, apperror.FetchFailed(videoID, err)
	}
	fetched, ok := stats[videoID]
	if !ok {
		return nil, apperror.VideoNotFound(videoID)
	}

	short.ViewCount = fetched.ViewCount
	short.LikeCount = fetched.LikeCount
	if fetched.Title != nil {
		short.Title = fetched.Title
	}
	if fetched.Hashtags != nil {
		short.Hashtags = fetched.Hashtags
	}

	if err := r.shorts.UpdateShortStats(ctx, short); err != nil {
		return nil, err
	}

	snapshot := snapshotOf(short, time.Now().UTC())
	if err := r.snapshots.RecordSnapshots(ctx, []models.ViewSnapshot{snapshot}); err != nil {
		r.logger.Warn("failed to record view snapshot", zap.String("video_id", videoID), zap.Error(err))
	}

	return short, nil
}

func (r *Refresher) recordSnapshots(ctx context.Context, updates []store.StatsUpdate) {
	if len(updates) == 0 {
		return
	}

	now := time.Now().UTC()
	snapshots := make([]models.ViewSnapshot, 0, len(updates))
	for _, u := range updates {
		snapshot := models.ViewSnapshot{
			VideoID:      u.VideoID,
			SnapshotTime: now,
			ViewCount:    u.ViewCount,
			LikeCount:    u.LikeCount,
		}
		if u.Title != nil {
			snapshot.Title = *u.Title
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := r.snapshots.RecordSnapshots(ctx, snapshots); err != nil {
		r.logger.Warn("failed to record view snapshots", zap.Error(err))
	}
}
