package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"devinsights-backend/application/services"
	"devinsights-backend/pkg/auth"
	"devinsights-backend/pkg/common"
	"devinsights-backend/pkg/utils"
)

// InsightsHandler serves the AI insight endpoints.
type InsightsHandler struct {
	ai     *services.AIService
	logger *zap.Logger
}

// NewInsightsHandler creates an InsightsHandler.
func NewInsightsHandler(ai *services.AIService, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{ai: ai, logger: logger}
}

type codeQualityRequest struct {
	Username string                     `json:"username" validate:"required"`
	Sample   services.CodeQualitySample `json:"sample"`
}

type codeQualityResponse struct {
	Username    string                      `json:"username"`
	CodeQuality services.CodeQualityInsight `json:"code_quality"`
	services.InsightMeta
}

// AnalyzeCodeQuality handles POST /api/ai/code-quality
func (h *InsightsHandler) AnalyzeCodeQuality(w http.ResponseWriter, r *http.Request) {
	var req codeQualityRequest
	if !decodeInsightRequest(w, r, &req) {
		return
	}

	insight, meta := h.ai.AnalyzeCodeQuality(r.Context(), req.Username, req.Sample)
	common.RespondJSON(w, http.StatusOK, codeQualityResponse{
		Username:    req.Username,
		CodeQuality: insight,
		InsightMeta: meta,
	})
}

type burnoutRequest struct {
	Email    string                `json:"email" validate:"required,email"`
	Patterns services.WorkPatterns `json:"patterns"`
}

type burnoutResponse struct {
	Email       string                  `json:"email"`
	BurnoutRisk services.BurnoutInsight `json:"burnout_risk"`
	services.InsightMeta
}

// DetectBurnoutRisk handles POST /api/ai/burnout
func (h *InsightsHandler) DetectBurnoutRisk(w http.ResponseWriter, r *http.Request) {
	var req burnoutRequest
	if !decodeInsightRequest(w, r, &req) {
		return
	}

	insight, meta := h.ai.DetectBurnoutRisk(r.Context(), req.Email, req.Patterns)
	common.RespondJSON(w, http.StatusOK, burnoutResponse{
		Email:       req.Email,
		BurnoutRisk: insight,
		InsightMeta: meta,
	})
}

type teamPerformanceRequest struct {
	Sample services.TeamSample `json:"sample"`
}

type teamPerformanceResponse struct {
	OrganizationID  string               `json:"organization_id"`
	TeamPerformance services.TeamInsight `json:"team_performance"`
	services.InsightMeta
}

// AnalyzeTeamPerformance handles POST /api/ai/team-performance. The
// organization comes from the caller's token, never from the body.
func (h *InsightsHandler) AnalyzeTeamPerformance(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized,
			common.StandardErrorCodes.Unauthorized, "Authentication required")
		return
	}

	var req teamPerformanceRequest
	if !decodeInsightRequest(w, r, &req) {
		return
	}

	insight, meta := h.ai.AnalyzeTeamPerformance(r.Context(), claims.OrganizationID, req.Sample)
	common.RespondJSON(w, http.StatusOK, teamPerformanceResponse{
		OrganizationID:  claims.OrganizationID,
		TeamPerformance: insight,
		InsightMeta:     meta,
	})
}

func decodeInsightRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
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
