package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/store"
	"github.com/filmchain/track-shorts/internal/utils"
)

type VoteHandler struct {
	VoteStore store.VoteStore
	Logger    *zap.Logger
}

func NewVoteHandler(voteStore store.VoteStore, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{
		VoteStore: voteStore,
		Logger:    logger,
	}
}

func (vh *VoteHandler) HandlerUpvote(w http.ResponseWriter, r *http.Request) {
	vote, err := vh.VoteStore.Upvote(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, vh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.Envelope{"data": vote})
}

func (vh *VoteHandler) HandlerDownvote(w http.ResponseWriter, r *http.Request) {
	vote, err := vh.VoteStore.Downvote(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, vh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": vote})
}

func (vh *VoteHandler) HandlerGetVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := vh.VoteStore.GetVotes(r.Context(), r.URL.Query()["tag"])
	if err != nil {
		writeError(w, vh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": votes})
}
