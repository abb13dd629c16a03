package auth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/utils"
)

const (
	oauthSessionName = "filmchain_oauth"
	oauthStateKey    = "oauth_state"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type GoogleOauth struct {
	Logger      *zap.Logger
	Config      *oauth2.Config
	Store       sessions.Store
	Accounts    *Accounts
	UserInfoURL string
}

func NewGoogleOauth(cfg GoogleConfig, store sessions.Store, accounts *Accounts, logger *zap.Logger) *GoogleOauth {
	return &GoogleOauth{
		Logger: logger,
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		Store:       store,
		Accounts:    accounts,
		UserInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleOauth) configured() bool {
	return g.Config.ClientID != "" && g.Config.ClientSecret != ""
}

// Login stores a fresh state value in the session cookie and returns the
// Google authorization URL for the client to follow.
func (g *GoogleOauth) Login(w http.ResponseWriter, r *http.Request) {
	if !g.configured() {
		g.Logger.Error("google oauth is not configured")
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"error": "internal_error", "message": "Google Client ID/Secret not configured"})
		return
	}

	state := uuid.NewString()

	session, _ := g.Store.Get(r, oauthSessionName)
	session.Values[oauthStateKey] = state
	if err := session.Save(r, w); err != nil {
		g.Logger.Error("failed to save oauth session", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, err)
		return
	}

	url := g.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": map[string]string{"url": url}})
}

func (g *GoogleOauth) Callback(w http.ResponseWriter, r *http.Request) {
	if !g.configured() {
		g.Logger.Error("google oauth is not configured")
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"error": "internal_error", "message": "Google Client ID/Secret not configured"})
		return
	}

	session, _ := g.Store.Get(r, oauthSessionName)
	expected, _ := session.Values[oauthStateKey].(string)
	delete(session.Values, oauthStateKey)
	if err := session.Save(r, w); err != nil {
		g.Logger.Warn("failed to clear oauth state", zap.Error(err))
	}

	state := r.URL.Query().Get("state")
	if expected == "" || state != expected {
		utils.WriteError(w, http.StatusBadRequest, apperror.Validation("Authentication failed: invalid oauth state"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteError(w, http.StatusBadRequest, apperror.Validation("Authentication failed: missing code"))
		return
	}

	profile, err := g.fetchProfile(r, code)
	if err != nil {
		g.Logger.Warn("google login failed", zap.Error(err))
		utils.WriteError(w, http.StatusBadRequest, apperror.Validation(fmt.Sprintf("Authentication failed: %v", err)))
		return
	}

	result, err := g.Accounts.LoginWithGoogle(r.Context(), *profile)
	if err != nil {
		status := utils.ErrorStatus(err)
		if status == http.StatusInternalServerError {
			g.Logger.Error("failed to log in google user", zap.Error(err))
		}
		utils.WriteError(w, status, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": result})
}

func (g *GoogleOauth) fetchProfile(r *http.Request, code string) (*GoogleProfile, error) {
	token, err := g.Config.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := g.Config.Client(r.Context(), token).Get(g.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get user info: unexpected status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &profile, nil
}
