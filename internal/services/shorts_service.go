package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/store"
	"github.com/filmchain/track-shorts/internal/store/analytics"
	"github.com/filmchain/track-shorts/internal/youtube"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

type CreateShortsInput struct {
	URL     string
	Hashtag string
	UserID  *uuid.UUID
}

type ShortsService struct {
	shorts      store.ShortStore
	fetcher     youtube.StatsFetcher
	snapshots   analytics.SnapshotStore
	requiredTag string
	logger      *zap.Logger
}

func NewShortsService(
	shorts store.ShortStore,
	fetcher youtube.StatsFetcher,
	snapshots analytics.SnapshotStore,
	requiredTag string,
	logger *zap.Logger,
) *ShortsService {
	return &ShortsService{
		shorts:      shorts,
		fetcher:     fetcher,
		snapshots:   snapshots,
		requiredTag: youtube.CleanTag(requiredTag),
		logger:      logger,
	}
}

// CreateShorts registers the video behind input.URL. The row is inserted
// before the platform is asked about it; any failure after the insert
// deletes the row again, so callers only ever see committed records.
func (s *ShortsService) CreateShorts(ctx context.Context, input CreateShortsInput) (*models.Short, error) {
	videoID, err := youtube.ParseVideoID(input.URL)
	if err != nil {
		return nil, err
	}

	exists, err := s.shorts.Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Duplicate(videoID)
	}

	expected := youtube.CleanTag(input.Hashtag)
	placeholder := &models.Short{
		VideoID: videoID,
		URL:     input.URL,
		UserID:  input.UserID,
	}
	if expected != "" {
		tag := "#" + expected
		placeholder.Hashtags = &tag
	}

	// A unique violation here is the authoritative duplicate signal.
	if err := s.shorts.CreateShort(ctx, placeholder); err != nil {
		return nil, err
	}

	in := newIngestion(placeholder)
	log := s.logger.With(zap.String("video_id", videoID))

	stats, err := s.fetcher.FetchVideoStats(ctx, []string{videoID})
	if err != nil {
		return nil, s.rollback(ctx, in, log, apperror.FetchFailed(videoID, err))
	}
	fetched, ok := stats[videoID]
	if !ok {
		return nil, s.rollback(ctx, in, log, apperror.VideoNotFound(videoID))
	}

	in.short.ViewCount = fetched.ViewCount
	in.short.LikeCount = fetched.LikeCount
	if fetched.Title != nil {
		in.short.Title = fetched.Title
	}
	if fetched.Hashtags != nil {
		in.short.Hashtags = fetched.Hashtags
	}
	if err := in.advance(stateStatsFetched); err != nil {
		return nil, s.rollback(ctx, in, log, err)
	}

	if verr := s.validate(videoID, fetched.Hashtags, expected); verr != nil {
		if err := in.advance(stateRejected); err != nil {
			return nil, s.rollback(ctx, in, log, err)
		}
		return nil, s.rollback(ctx, in, log, verr)
	}
	if err := in.advance(stateValidated); err != nil {
		return nil, s.rollback(ctx, in, log, err)
	}

	if err := s.shorts.UpdateShortStats(ctx, in.short); err != nil {
		return nil, s.rollback(ctx, in, log, err)
	}
	if err := in.advance(stateCommitted); err != nil {
		return nil, err
	}

	log.Info("short registered",
		zap.Int64("view_count", in.short.ViewCount),
		zap.Stringp("hashtags", in.short.Hashtags),
	)
	s.recordSnapshot(ctx, in.short)

	return in.short, nil
}

// validate checks the fetched hashtags for the required tag and, when given,
// the caller's expected tag.
func (s *ShortsService) validate(videoID string, hashtags *string, expected string) error {
	if hashtags == nil {
		return apperror.NoHashtags(videoID)
	}

	var missing []string
	if !youtube.HasHashtag(*hashtags, s.requiredTag) {
		missing = append(missing, "#"+s.requiredTag)
	}
	sameAsRequired := strings.EqualFold(youtube.CleanTag(expected), s.requiredTag)
	if expected != "" && !sameAsRequired && !youtube.HasHashtag(*hashtags, expected) {
		missing = append(missing, "#"+expected)
	}

	if len(missing) > 0 {
		return apperror.MissingHashtags(videoID, missing)
	}
	return nil
}

// rollback deletes the placeholder row and returns cause. The delete runs
// even if ctx has been cancelled.
func (s *ShortsService) rollback(ctx context.Context, in *ingestion, log *zap.Logger, cause error) error {
	if in.done() {
		return cause
	}

	from := in.state
	if err := s.shorts.DeleteShort(context.WithoutCancel(ctx), in.short.VideoID); err != nil {
		log.Error("failed to delete rejected short", zap.Error(err))
	}
	in.state = stateRolledBack

	log.Info("short rejected",
		zap.Stringer("from_state", from),
		zap.Error(cause),
	)
	return cause
}

func (s *ShortsService) recordSnapshot(ctx context.Context, short *models.Short) {
	snapshot := snapshotOf(short, time.Now().UTC())
	if err := s.snapshots.RecordSnapshots(ctx, []models.ViewSnapshot{snapshot}); err != nil {
		s.logger.Warn("failed to record view snapshot", zap.String("video_id", short.VideoID), zap.Error(err))
	}
}

func (s *ShortsService) GetShort(ctx context.Context, videoID string) (*models.Short, error) {
	return s.shorts.GetShortByVideoID(ctx, videoID)
}

// CompareHashtags sums view counts per tag over records that also carry the
// required tag. Results follow the order of tags.
func (s *ShortsService) CompareHashtags(ctx context.Context, tags []string) ([]models.HashtagStat, error) {
	result := make([]models.HashtagStat, 0, len(tags))
	for _, raw := range tags {
		tag := youtube.CleanTag(raw)
		stat := models.HashtagStat{Hashtag: tag}

		if tag != "" {
			total, err := s.shorts.SumViewsByHashtag(ctx, tag, s.requiredTag)
			if err != nil {
				return nil, err
			}
			stat.TotalViews = total
		}

		result = append(result, stat)
	}
	return result, nil
}

func (s *ShortsService) ListByHashtag(ctx context.Context, tag string, limit int) ([]models.Short, error) {
	tag = youtube.CleanTag(tag)
	if tag == "" {
		return nil, apperror.EmptyTag()
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	return s.shorts.ListShortsByHashtag(ctx, tag, s.requiredTag, limit)
}

// History returns recorded view snapshots, newest first.
func (s *ShortsService) History(ctx context.Context, videoID string) ([]models.ViewSnapshot, error) {
	if _, err := s.shorts.GetShortByVideoID(ctx, videoID); err != nil {
		return nil, err
	}
	return s.snapshots.GetSnapshots(ctx, videoID)
}

func snapshotOf(short *models.Short, at time.Time) models.ViewSnapshot {
	snapshot := models.ViewSnapshot{
		VideoID:      short.VideoID,
		SnapshotTime: at,
		ViewCount:    short.ViewCount,
		LikeCount:    short.LikeCount,
	}
	if short.Title != nil {
		snapshot.Title = *short.Title
	}
	return snapshot
}
