package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/auth"
	"github.com/user/orbit-back/internal/models"
	"github.com/user/orbit-back/internal/storage"
)

type AuthHandler struct {
	repo      *auth.Repository
	tokens    *auth.TokenService
	storage   *storage.S3Storage
	validator *validator.Validate
}

func NewAuthHandler(repo *auth.Repository, tokens *auth.TokenService, storage *storage.S3Storage) *AuthHandler {
	return &AuthHandler{
		repo:      repo,
		tokens:    tokens,
		storage:   storage,
		validator: validator.New(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user, err := h.repo.CreateUser(r.Context(), req.Email, passwordHash, req.DisplayName)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondError(w, http.StatusConflict, "User with this email already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	tokens, err := h.generateTokens(r, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusCreated, models.AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	user, err := h.repo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tokens, err := h.generateTokens(r, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, models.AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	rt, err := h.repo.GetRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	// Delete old refresh token
	if err := h.repo.DeleteRefreshToken(r.Context(), req.RefreshToken); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to invalidate old token")
		return
	}

	tokens, err := h.generateTokens(r, rt.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) SetDisplayName(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.SetDisplayNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	user, err := h.repo.SetDisplayName(r.Context(), userID, req.DisplayName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to set display name")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.repo.GetUserByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// ListUsers searches the user directory for starting a new DM.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Value("userID").(uuid.UUID); !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	users, err := h.repo.ListUsers(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	if users == nil {
		users = []*models.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_ = h.repo.DeleteRefreshToken(r.Context(), req.RefreshToken)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// LogoutAll revokes every refresh token the user holds, ending all sessions.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.repo.DeleteUserRefreshTokens(r.Context(), userID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out everywhere"})
}

func (h *AuthHandler) generateTokens(r *http.Request, userID uuid.UUID) (*models.TokenResponse, error) {
	accessToken, err := h.tokens.GenerateAccessToken(userID)
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := h.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := h.repo.SaveRefreshToken(r.Context(), userID, refreshToken, expiresAt); err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// UploadAvatar handles avatar image upload
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAvatarSize)

	if err := r.ParseMultipartForm(storage.MaxAvatarSize); err != nil {
		respondError(w, http.StatusBadRequest, "File too large (max 5MB)")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	avatarURL, err := h.storage.UploadAvatar(r.Context(), userID, header.Filename, contentType, file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Drop the previous avatar if there was one
	user, err := h.repo.GetUserByID(r.Context(), userID)
	if err == nil && user.AvatarURL != nil && *user.AvatarURL != "" {
		_ = h.storage.Delete(r.Context(), *user.AvatarURL)
	}

	user, err = h.repo.SetAvatarURL(r.Context(), userID, avatarURL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
