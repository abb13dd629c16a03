package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

// MaxBatchSize is the largest id list the videos endpoint accepts per call.
const MaxBatchSize = 50

var errTooManyIDs = fmt.Errorf("at most %d video ids per request", MaxBatchSize)

type VideoStats struct {
	ViewCount int64
	LikeCount int64
	Title     *string
	Hashtags  *string
}

type StatsFetcher interface {
	FetchVideoStats(ctx context.Context, ids []string) (map[string]VideoStats, error)
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Tags        []string `json:"tags"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Client talks to the YouTube Data API v3 videos endpoint. One Client is
// built per process and shared by the API server and the refresh job.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("youtube api key is required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("youtube api base url is required")
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// FetchVideoStats looks up at most MaxBatchSize ids in one call. Ids the API
// does not return are simply missing from the result.
func (c *Client) FetchVideoStats(ctx context.Context, ids []string) (map[string]VideoStats, error) {
	result := make(map[string]VideoStats)
	if len(ids) == 0 {
		return result, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, errTooManyIDs
	}

	q := url.Values{}
	q.Set("part", "statistics,snippet")
	q.Set("id", strings.Join(ids, ","))
	q.Set("maxResults", strconv.Itoa(MaxBatchSize))
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build videos request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call youtube videos api: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("youtube videos api: %w", err)
	}

	var body videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode youtube videos response: %w", err)
	}

	for _, item := range body.Items {
		if item.ID == "" {
			continue
		}

		stats := VideoStats{
			ViewCount: parseCount(item.Statistics.ViewCount),
			LikeCount: parseCount(item.Statistics.LikeCount),
			Hashtags:  NormalizeHashtags(item.Snippet.Tags, item.Snippet.Title, item.Snippet.Description),
		}
		if item.Snippet.Title != "" {
			title := item.Snippet.Title
			stats.Title = &title
		}

		result[item.ID] = stats
	}

	return result, nil
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
