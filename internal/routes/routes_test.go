package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/app"
	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/auth"
	"github.com/filmchain/track-shorts/internal/config"
	"github.com/filmchain/track-shorts/internal/handlers"
	handler_analytics "github.com/filmchain/track-shorts/internal/handlers/analytics"
	"github.com/filmchain/track-shorts/internal/middlewares"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/services"
	"github.com/filmchain/track-shorts/internal/store"
	"github.com/filmchain/track-shorts/internal/store/analytics"
	"github.com/filmchain/track-shorts/internal/youtube"
)

const platformBody = `{
  "items": [
    {
      "id": "abc123",
      "snippet": {"title": "Teaser", "description": "out now #filmchain #moviex", "tags": []},
      "statistics": {"viewCount": "1520", "likeCount": "87"}
    }
  ]
}`

// memShortStore is a goroutine safe in-memory store.ShortStore.
type memShortStore struct {
	mu     sync.Mutex
	nextID int64
	shorts map[string]*models.Short
}

func newMemShortStore() *memShortStore {
	return &memShortStore{shorts: map[string]*models.Short{}}
}

func (m *memShortStore) Exists(_ context.Context, videoID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.shorts[videoID]
	return ok, nil
}

func (m *memShortStore) CreateShort(_ context.Context, short *models.Short) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shorts[short.VideoID]; ok {
		return apperror.Duplicate(short.VideoID)
	}
	m.nextID++
	short.ID = m.nextID
	short.CreatedAt = time.Now()
	short.UpdatedAt = short.CreatedAt
	stored := *short
	m.shorts[short.VideoID] = &stored
	return nil
}

func (m *memShortStore) GetShortByVideoID(_ context.Context, videoID string) (*models.Short, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	short, ok := m.shorts[videoID]
	if !ok {
		return nil, apperror.VideoNotFound(videoID)
	}
	copied := *short
	return &copied, nil
}

func (m *memShortStore) UpdateShortStats(_ context.Context, short *models.Short) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shorts[short.VideoID]; !ok {
		return apperror.VideoNotFound(short.VideoID)
	}
	short.UpdatedAt = time.Now()
	stored := *short
	m.shorts[short.VideoID] = &stored
	return nil
}

func (m *memShortStore) DeleteShort(_ context.Context, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shorts, videoID)
	return nil
}

func (m *memShortStore) ListVideoIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.shorts))
	for id := range m.shorts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memShortStore) ApplyStatsBatch(_ context.Context, updates []store.StatsUpdate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range updates {
		short, ok := m.shorts[u.VideoID]
		if !ok {
			continue
		}
		short.ViewCount = u.ViewCount
		short.LikeCount = u.LikeCount
		if u.Title != nil {
			short.Title = u.Title
		}
		if u.Hashtags != nil {
			short.Hashtags = u.Hashtags
		}
		n++
	}
	return n, nil
}

func (m *memShortStore) matching(tag, required string) []models.Short {
	var out []models.Short
	for _, short := range m.shorts {
		if short.Hashtags != nil && youtube.HasHashtag(*short.Hashtags, tag) && youtube.HasHashtag(*short.Hashtags, required) {
			out = append(out, *short)
		}
	}
	return out
}

func (m *memShortStore) SumViewsByHashtag(_ context.Context, tag, required string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, short := range m.matching(tag, required) {
		total += short.ViewCount
	}
	return total, nil
}

func (m *memShortStore) ListShortsByHashtag(_ context.Context, tag, required string, limit int) ([]models.Short, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.matching(tag, required)
	sort.Slice(out, func(i, j int) bool { return out[i].ViewCount > out[j].ViewCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memVoteStore struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *memVoteStore) Upvote(_ context.Context, tag string) (*models.HashtagVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tag = youtube.CleanTag(tag)
	if tag == "" {
		return nil, apperror.EmptyTag()
	}
	m.counts[tag]++
	return &models.HashtagVote{Hashtag: tag, VoteCount: m.counts[tag]}, nil
}

func (m *memVoteStore) Downvote(_ context.Context, tag string) (*models.HashtagVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tag = youtube.CleanTag(tag)
	count, ok := m.counts[tag]
	if !ok {
		return nil, apperror.TagNotFound(tag)
	}
	if count > 0 {
		count--
	}
	m.counts[tag] = count
	return &models.HashtagVote{Hashtag: tag, VoteCount: count}, nil
}

func (m *memVoteStore) GetVotes(_ context.Context, tags []string) ([]models.HashtagVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.HashtagVote, 0, len(tags))
	for _, tag := range tags {
		tag = youtube.CleanTag(tag)
		out = append(out, models.HashtagVote{Hashtag: tag, VoteCount: m.counts[tag]})
	}
	return out, nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (m *memUserStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return apperror.Conflict("Email already registered")
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.Email] = &stored
	return nil
}

func (m *memUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memUserStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

type testServer struct {
	*httptest.Server
	shorts *memShortStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("id") != "abc123" {
			w.Write([]byte(`{"items": []}`))
			return
		}
		w.Write([]byte(platformBody))
	}))
	t.Cleanup(platform.Close)

	ytClient, err := youtube.NewClient(platform.URL, "test-key", 5*time.Second)
	require.NoError(t, err)

	shortStore := newMemShortStore()
	snapshots := analytics.NoopSnapshotStore{}
	shortsService := services.NewShortsService(shortStore, ytClient, snapshots, "filmchain", logger)
	refresher := services.NewRefresher(shortStore, ytClient, snapshots, nil, time.Minute, logger)

	tokens, err := auth.NewTokenService("routes-test-secret-0123456789")
	require.NoError(t, err)
	accounts := auth.NewAccounts(&memUserStore{users: map[string]*models.User{}}, tokens, auth.NewPasswordServiceWithCost(4), logger)

	sessionStore := sessions.NewCookieStore([]byte("routes-test-session-key-0123456"))

	application := &app.Application{
		Config:                &config.Config{AllowedOrigins: "http://localhost:3000"},
		Logger:                logger,
		Oauth:                 auth.NewGoogleOauth(auth.GoogleConfig{}, sessionStore, accounts, logger),
		SessionStore:          sessionStore,
		MiddlewareHandler:     middlewares.NewMiddlewareHandler(logger, accounts),
		UserHandler:           handlers.NewUserHandler(accounts, logger),
		ShortsHandler:         handlers.NewShortsHandler(shortsService, refresher, logger),
		VoteHandler:           handlers.NewVoteHandler(&memVoteStore{counts: map[string]int{}}, logger),
		AnalyticsShortHandler: handler_analytics.NewAnalyticsShortHandler(shortsService, logger),
		Refresher:             refresher,
	}

	srv := httptest.NewServer(SetupRoutes(application))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, shorts: shortStore}
}

func (s *testServer) call(t *testing.T, method, path, body, token string) (int, map[string]json.RawMessage) {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.call(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `"ok"`, string(body["status"]))
}

func TestCreateShortEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.call(t, http.MethodPost, "/shorts", `{"url": "https://www.youtube.com/shorts/abc123", "hashtag": "moviex"}`, "")
	require.Equal(t, http.StatusCreated, status, string(body["message"]))

	var short models.Short
	require.NoError(t, json.Unmarshal(body["data"], &short))
	assert.Equal(t, "abc123", short.VideoID)
	require.NotNil(t, short.Hashtags)
	assert.Equal(t, "#filmchain #moviex", *short.Hashtags)
	assert.Equal(t, int64(1520), short.ViewCount)
	assert.Equal(t, int64(87), short.LikeCount)
	assert.Nil(t, short.UserID)

	status, body = srv.call(t, http.MethodPost, "/shorts", `{"url": "https://youtu.be/abc123"}`, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.JSONEq(t, `"duplicate"`, string(body["error"]))

	status, body = srv.call(t, http.MethodGet, "/shorts/abc123", "", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body["data"], &short))
	assert.Equal(t, int64(1520), short.ViewCount)

	status, body = srv.call(t, http.MethodGet, "/shorts/compare?tag=moviex&tag=other", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"hashtag": "moviex", "total_views": 1520}, {"hashtag": "other", "total_views": 0}]`, string(body["data"]))

	status, _ = srv.call(t, http.MethodGet, "/shorts/abc123/history", "", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateShortRejectionsLeaveNoRecord(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.call(t, http.MethodPost, "/shorts", `{"url": "https://www.youtube.com/shorts/abc123", "hashtag": "moviey"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `"validation_failed"`, string(body["error"]))

	status, _ = srv.call(t, http.MethodPost, "/shorts", `{"url": "https://www.youtube.com/shorts/gone42"}`, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = srv.call(t, http.MethodPost, "/shorts", `{"url": "https://vimeo.com/123"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `"invalid_url"`, string(body["error"]))

	assert.Empty(t, srv.shorts.shorts)
}

func TestAccountsAndOwnedShort(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.call(t, http.MethodPost, "/auth/signup", `{"email": "ana@example.com", "password": "secret-pass"}`, "")
	require.Equal(t, http.StatusCreated, status)

	status, body := srv.call(t, http.MethodPost, "/auth/login", `{"email": "ana@example.com", "password": "secret-pass"}`, "")
	require.Equal(t, http.StatusOK, status)

	var result auth.AuthResult
	require.NoError(t, json.Unmarshal(body["data"], &result))
	require.NotEmpty(t, result.AccessToken)

	status, body = srv.call(t, http.MethodGet, "/auth/me", "", result.AccessToken)
	require.Equal(t, http.StatusOK, status)
	var me models.User
	require.NoError(t, json.Unmarshal(body["data"], &me))
	assert.Equal(t, "ana@example.com", me.Email)

	status, _ = srv.call(t, http.MethodGet, "/auth/me", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = srv.call(t, http.MethodPost, "/shorts", `{"url": "https://youtu.be/abc123"}`, result.AccessToken)
	require.Equal(t, http.StatusCreated, status)
	var short models.Short
	require.NoError(t, json.Unmarshal(body["data"], &short))
	require.NotNil(t, short.UserID)
	assert.Equal(t, me.ID, *short.UserID)
}

func TestVoteRoutes(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.call(t, http.MethodPost, "/shorts/vote?tag=moviex", "", "")
	require.Equal(t, http.StatusCreated, status)

	status, body := srv.call(t, http.MethodGet, "/shorts/votes?tag=moviex&tag=other", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"hashtag": "moviex", "vote_count": 1}, {"hashtag": "other", "vote_count": 0}]`, string(body["data"]))

	status, _ = srv.call(t, http.MethodDelete, "/shorts/vote?tag=other", "", "")
	assert.Equal(t, http.StatusNotFound, status)
}
