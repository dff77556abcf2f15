package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"devinsights-backend/application/services"
	"devinsights-backend/domain/accounts"
	"devinsights-backend/pkg/auth"
	"devinsights-backend/pkg/common"
	apperrors "devinsights-backend/pkg/errors"
	"devinsights-backend/pkg/utils"
)

const maxBodyBytes = 64 * 1024

// AuthHandler serves signup, login and invitation redemption.
type AuthHandler struct {
	accounts *services.AccountService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts *services.AccountService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, errors: errorHandler, logger: logger}
}

type signUpRequest struct {
	OrganizationName string `json:"organization_name" validate:"required,min=2,max=100"`
	Name             string `json:"name" validate:"required,min=1,max=100"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8,max=128"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.accounts.SignUp(r.Context(), req.OrganizationName, req.Name, req.Email, req.Password)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, session)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, session)
}

type profileResponse struct {
	User         *accounts.User         `json:"user"`
	Organization *accounts.Organization `json:"organization,omitempty"`
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized,
			common.StandardErrorCodes.Unauthorized, "Authentication required")
		return
	}

	user, org, err := h.accounts.GetProfile(r.Context(), claims.Email)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, profileResponse{User: user, Organization: org})
}

type acceptInvitationRequest struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// AcceptInvitation handles POST /api/auth/invitations/accept
func (h *AuthHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req acceptInvitationRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.accounts.AcceptInvitation(r.Context(), req.Token, req.Name, req.Password)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, session)
}

// decode parses and validates a JSON body, answering the request itself
// on failure.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(r, v, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "Invalid request body")
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, err.Error())
		return false
	}
	return true
}
