package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"devinsights-backend/application/services"
	"devinsights-backend/pkg/auth"
	"devinsights-backend/pkg/common"
	apperrors "devinsights-backend/pkg/errors"
	"devinsights-backend/pkg/utils"
)

// TeamHandler serves organization membership endpoints.
type TeamHandler struct {
	accounts *services.AccountService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewTeamHandler creates a TeamHandler.
func NewTeamHandler(accounts *services.AccountService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{accounts: accounts, errors: errorHandler, logger: logger}
}

// ListMembers handles GET /api/teams/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized,
			common.StandardErrorCodes.Unauthorized, "Authentication required")
		return
	}

	members, err := h.accounts.ListMembers(r.Context(), claims.OrganizationID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, members)
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin member viewer"`
}

// InviteMember handles POST /api/teams/invitations
func (h *TeamHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized,
			common.StandardErrorCodes.Unauthorized, "Authentication required")
		return
	}

	var req inviteRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	invitation, err := h.accounts.InviteMember(r.Context(), claims.OrganizationID, claims.Email, req.Email, req.Role)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, invitation)
}

// ListInvitations handles GET /api/teams/invitations
func (h *TeamHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized,
			common.StandardErrorCodes.Unauthorized, "Authentication required")
		return
	}

	invitations, err := h.accounts.ListInvitations(r.Context(), claims.OrganizationID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, invitations)
}

// RevokeInvitation handles DELETE /api/teams/invitations/{invitationID}
func (h *TeamHandler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized,
			common.StandardErrorCodes.Unauthorized, "Authentication required")
		return
	}

	invitationID := chi.URLParam(r, "invitationID")
	if err := h.accounts.RevokeInvitation(r.Context(), claims.OrganizationID, invitationID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
