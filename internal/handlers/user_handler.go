package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/auth"
	"github.com/filmchain/track-shorts/internal/middlewares"
	"github.com/filmchain/track-shorts/internal/models"
	"github.com/filmchain/track-shorts/internal/utils"
)

type AccountService interface {
	Signup(ctx context.Context, in auth.SignupInput) (*models.User, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error)
}

type UserHandler struct {
	Accounts AccountService
	Logger   *zap.Logger
}

func NewUserHandler(accounts AccountService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		Accounts: accounts,
		Logger:   logger,
	}
}

func (uh *UserHandler) HandlerSignup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupInput
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, uh.Logger, http.StatusBadRequest, err)
		return
	}

	user, err := uh.Accounts.Signup(r.Context(), req)
	if err != nil {
		writeError(w, uh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.Envelope{"data": user})
}

func (uh *UserHandler) HandlerLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginInput
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, uh.Logger, http.StatusBadRequest, err)
		return
	}

	result, err := uh.Accounts.Login(r.Context(), req)
	if err != nil {
		if utils.ErrorStatus(err) == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeError(w, uh.Logger, utils.ErrorStatus(err), err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": result})
}

func (uh *UserHandler) HandlerMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		writeError(w, uh.Logger, http.StatusUnauthorized, apperror.Unauthorized("Not authenticated"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": user})
}
