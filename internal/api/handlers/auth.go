package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/rohits-web03/reciperater/internal/api/services"
	"github.com/rohits-web03/reciperater/internal/models"
	"github.com/rohits-web03/reciperater/internal/session"
	"github.com/rohits-web03/reciperater/internal/utils"
)

// Accounts is what the auth handlers need from the account service.
type Accounts interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
	GoogleAccount(ctx context.Context, googleID, email, name string, register bool) (*models.User, error)
}

type AuthHandler struct {
	Accounts    Accounts
	JWTSecret   string
	SessionTTL  time.Duration
	Production  bool
	Google      *oauth2.Config
	FrontendURL string
	Logger      *slog.Logger
}

// POST /auth/sign-up
// RegisterUser godoc
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/v1/auth/sign-up [post]
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil || input.Email == "" || input.Username == "" || input.Password == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	_, err := h.Accounts.Register(r.Context(), input.Username, input.Email, input.Password)
	switch {
	case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: err.Error(),
		})
		return
	case err != nil:
		h.Logger.Error("registration failed", "error", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database insert failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "User registered successfully",
	})
}

// POST /auth/login
// LoginUser godoc
// @Summary Log in and receive a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil || input.Username == "" || input.Password == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	user, err := h.Accounts.Authenticate(r.Context(), input.Username, input.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	case err != nil:
		h.Logger.Error("login failed", "error", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	token, expiration, err := session.Issue(h.JWTSecret, user.ID.String(), user.Username, h.SessionTTL)
	if err != nil {
		h.Logger.Error("failed to issue session", "error", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to create token",
		})
		return
	}

	h.setSessionCookie(w, token, expiration)
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Login successful",
		Data: map[string]any{
			"token":     token,
			"expiresAt": expiration,
		},
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // maxAge < 0 deletes the cookie
		Secure:   h.Production,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Logged out successfully",
	})
}

func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	redirectType := r.URL.Query().Get("redirect") // "login" or "register"
	if redirectType == "" {
		redirectType = "login"
	}

	state, err := GenerateState(map[string]string{"flow": redirectType})
	if err != nil {
		http.Error(w, "Failed to generate OAuth state", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.Google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateData, err := DecodeState(r.FormValue("state"))
	if err != nil {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	flowType := stateData["flow"]

	token, err := h.Google.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.Logger.Warn("google code exchange failed", "error", err)
		http.Error(w, "Code exchange failed", http.StatusInternalServerError)
		return
	}

	resp, err := h.Google.Client(r.Context(), token).Get(services.GoogleUserInfoURL)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	var googleUser struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(data, &googleUser); err != nil || googleUser.Email == "" {
		http.Error(w, "Failed to parse user info", http.StatusInternalServerError)
		return
	}

	user, err := h.Accounts.GoogleAccount(r.Context(), googleUser.ID, googleUser.Email, googleUser.Name, flowType == "register")
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		http.Redirect(w, r, h.FrontendURL+"/login?error=user_already_exists", http.StatusTemporaryRedirect)
		return
	case errors.Is(err, services.ErrUserNotFound):
		http.Redirect(w, r, h.FrontendURL+"/register?error=user_not_found", http.StatusTemporaryRedirect)
		return
	case err != nil:
		h.Logger.Error("google account lookup failed", "error", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	sessionToken, expiration, err := session.Issue(h.JWTSecret, user.ID.String(), user.Username, h.SessionTTL)
	if err != nil {
		http.Error(w, "Failed to create JWT", http.StatusInternalServerError)
		return
	}
	h.setSessionCookie(w, sessionToken, expiration)

	redirectURL := h.FrontendURL + "/meals?status=success_login"
	if flowType == "register" {
		redirectURL = h.FrontendURL + "/meals?status=success_register"
	}
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiration time.Time) {
	sameSite := http.SameSiteLaxMode
	if h.Production {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(time.Until(expiration).Seconds()),
		Secure:   h.Production,
		HttpOnly: true,
		SameSite: sameSite,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
		Success: false,
		Message: "Method not allowed",
	})
}
