package analytics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/utils"
)

type HistoryService interface {
	History(ctx context.Context, videoID string) ([]models.ViewSnapshot, error)
}

type AnalyticsShortHandler struct {
	History HistoryService
	Logger  *zap.Logger
}

func NewAnalyticsShortHandler(history HistoryService, logger *zap.Logger) *AnalyticsShortHandler {
	return &AnalyticsShortHandler{
		History: history,
		Logger:  logger,
	}
}

func (ah *AnalyticsShortHandler) HandlerGetShortHistory(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")

	snapshots, err := ah.History.History(r.Context(), videoID)
	if err != nil {
		status := utils.ErrorStatus(err)
		if status >= http.StatusInternalServerError {
			ah.Logger.Error("failed to get short history", zap.String("video_id", videoID), zap.Error(err))
		}
		utils.WriteError(w, status, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": snapshots})
}
