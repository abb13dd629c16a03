package models

import (
	"time"

	"github.com/google/uuid"
)

// Short is a tracked video, keyed by the platform's video id.
type Short struct {
	ID        int64      `json:"id"`
	VideoID   string     `json:"video_id"`
	URL       string     `json:"url"`
	Title     *string    `json:"title"`
	Hashtags  *string    `json:"hashtags"`
	ViewCount int64      `json:"view_count"`
	LikeCount int64      `json:"like_count"`
	UserID    *uuid.UUID `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type HashtagStat struct {
	Hashtag    string `json:"hashtag"`
	TotalViews int64  `json:"total_views"`
}

type ViewSnapshot struct {
	VideoID      string    `json:"video_id" ch:"video_id"`
	SnapshotTime time.Time `json:"snapshot_time" ch:"snapshot_time"`
	ViewCount    int64     `json:"view_count" ch:"view_count"`
	LikeCount    int64     `json:"like_count" ch:"like_count"`
	Title        string    `json:"title" ch:"title"`
}
