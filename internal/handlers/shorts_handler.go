package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/middlewares"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/services"
	"github.com/filmchain/track-shorts/internal/utils"
)

type ShortsService interface {
	CreateShorts(ctx context.Context, input services.CreateShortsInput) (*models.Short, error)
	GetShort(ctx context.Context, videoID string) (*models.Short, error)
	CompareHashtags(ctx context.Context, tags []string) ([]models.HashtagStat, error)
	ListByHashtag(ctx context.Context, tag string, limit int) ([]models.Short, error)
}

type ShortRefresher interface {
	RefreshOne(ctx context.Context, videoID string) (*models.Short, error)
}

type ShortsHandler struct {
	Shorts    ShortsService
	Refresher ShortRefresher
	Logger    *zap.Logger
}

func NewShortsHandler(shorts ShortsService, refresher ShortRefresher, logger *zap.Logger) *ShortsHandler {
	return &ShortsHandler{
		Shorts:    shorts,
		Refresher: refresher,
		Logger:    logger,
	}
}

type createShortRequest struct {
	URL     string `json:"url" validate:"required"`
	Hashtag string `json:"hashtag" validate:"omitempty,max=100"`
}

func (sh *ShortsHandler) HandlerCreateShort(w http.ResponseWriter, r *http.Request) {
	var req createShortRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, sh.Logger, http.StatusBadRequest, err)
		return
	}

	input := services.CreateShortsInput{URL: req.URL, Hashtag: req.Hashtag}
	if user, ok := middlewares.GetUserFromContext(r); ok {
		input.UserID = &user.ID
	}

	short, err := sh.Shorts.CreateShorts(r.Context(), input)
	if err != nil {
		writeError(w, sh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.Envelope{"data": short})
}

func (sh *ShortsHandler) HandlerGetShort(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")

	short, err := sh.Shorts.GetShort(r.Context(), videoID)
	if err != nil {
		writeError(w, sh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": short})
}

func (sh *ShortsHandler) HandlerRefreshShort(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")

	short, err := sh.Refresher.RefreshOne(r.Context(), videoID)
	if err != nil {
		writeError(w, sh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": short})
}

func (sh *ShortsHandler) HandlerCompareHashtags(w http.ResponseWriter, r *http.Request) {
	tags := r.URL.Query()["tag"]
	if len(tags) == 0 {
		writeError(w, sh.Logger, http.StatusBadRequest, apperror.Validation("at least one tag query parameter is required"))
		return
	}

	stats, err := sh.Shorts.CompareHashtags(r.Context(), tags)
	if err != nil {
		writeError(w, sh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": stats})
}

func (sh *ShortsHandler) HandlerListByHashtag(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, sh.Logger, http.StatusBadRequest, apperror.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	shorts, err := sh.Shorts.ListByHashtag(r.Context(), tag, limit)
	if err != nil {
		writeError(w, sh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": shorts})
}
