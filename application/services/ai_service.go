package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"devinsights-backend/pkg/utils"
)

const aiSystemPrompt = `You are a professional code quality and team performance analyzer.
Provide accurate, actionable insights based on the data provided.
Always respond with valid JSON only, no markdown or extra text.`

// CodeQualitySample is the commit activity summary fed to the model.
type CodeQualitySample struct {
	TotalCommits     int      `json:"total_commits"`
	AvgCommitsPerDay float64  `json:"avg_commits_per_day"`
	LastCommit       string   `json:"last_commit"`
	Messages         []string `json:"messages"`
}

// CodeQualityInsight is the model's code quality assessment.
type CodeQualityInsight struct {
	Score           float64  `json:"score"`
	Complexity      string   `json:"complexity"`
	Issues          []string `json:"issues"`
	Strengths       []string `json:"strengths"`
	Recommendations []string `json:"recommendations"`
}

// WorkPatterns summarizes one developer's working rhythm.
type WorkPatterns struct {
	CommitsPerDay    float64 `json:"commits_per_day"`
	WeekendCommits   int     `json:"weekend_commits"`
	LateNightCommits int     `json:"late_night_commits"`
	IssuesResolved   int     `json:"issues_resolved"`
	TimeOffDays      int     `json:"time_off_days"`
	WorkConsistency  string  `json:"work_consistency"`
}

// BurnoutInsight is the model's burnout risk assessment.
type BurnoutInsight struct {
	RiskScore       float64  `json:"riskScore"`
	RiskLevel       string   `json:"riskLevel"`
	Signs           []string `json:"signs"`
	Recommendations []string `json:"recommendations"`
	Urgency         string   `json:"urgency"`
}

// TeamSample summarizes an organization's activity.
type TeamSample struct {
	MemberCount  int    `json:"member_count"`
	TotalCommits int    `json:"total_commits"`
	TotalPRs     int    `json:"total_prs"`
	TotalIssues  int    `json:"total_issues"`
	Velocity     string `json:"velocity"`
}

// TeamInsight is the model's team performance assessment.
type TeamInsight struct {
	HealthScore     float64  `json:"healthScore"`
	Velocity        string   `json:"velocity"`
	Collaboration   string   `json:"collaboration"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	Trend           string   `json:"trend"`
}

// InsightMeta is attached to every insight result.
type InsightMeta struct {
	Success    bool   `json:"success"`
	AnalyzedAt string `json:"analyzed_at"`
	Model      string `json:"model,omitempty"`
	Mock       bool   `json:"mock,omitempty"`
	Note       string `json:"note,omitempty"`
}

func mockMeta() InsightMeta {
	return InsightMeta{
		Success:    true,
		AnalyzedAt: utils.NowRFC3339(),
		Mock:       true,
		Note:       "Mock response - API not configured",
	}
}

// AIService produces insights through an OpenRouter-hosted model. Without
// an API key, or when the upstream call fails, deterministic fallback
// insights are returned so the endpoints stay usable.
type AIService struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// NewAIService creates an AIService.
func NewAIService(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *AIService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if apiKey == "" {
		logger.Warn("no OpenRouter API key configured, AI insights fall back to canned responses")
	}
	return &AIService{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

// Enabled reports whether real model calls are configured.
func (s *AIService) Enabled() bool { return s.apiKey != "" }

// AnalyzeCodeQuality assesses a developer's commit activity.
func (s *AIService) AnalyzeCodeQuality(ctx context.Context, username string, sample CodeQualitySample) (CodeQualityInsight, InsightMeta) {
	fallback := CodeQualityInsight{
		Score:           7.5,
		Complexity:      "medium",
		Issues:          []string{"Some functions could be more modular", "Consider adding more tests"},
		Strengths:       []string{"Good variable naming", "Consistent style"},
		Recommendations: []string{"Add doc comments", "Increase test coverage"},
	}
	if !s.Enabled() {
		return fallback, mockMeta()
	}

	prompt := fmt.Sprintf(`You are a code quality expert. Analyze this developer's GitHub activity and provide a code quality assessment.

Developer: %s
Total commits: %d
Average commits per day: %.2f
Last commit: %s
Recent commit messages: %s

Respond ONLY with valid JSON (no markdown):
{
  "score": <number 0-10>,
  "complexity": "<low|medium|high>",
  "issues": [<list of max 3 issues>],
  "strengths": [<list of max 3 strengths>],
  "recommendations": [<list of max 3 recommendations>]
}`, username, sample.TotalCommits, sample.AvgCommitsPerDay, sample.LastCommit, strings.Join(sample.Messages, "; "))

	var insight CodeQualityInsight
	if err := s.callModel(ctx, prompt, &insight); err != nil {
		s.logger.Warn("code quality analysis failed, using fallback",
			zap.String("username", username),
			zap.Error(err),
		)
		return fallback, mockMeta()
	}
	return insight, InsightMeta{Success: true, AnalyzedAt: utils.NowRFC3339(), Model: s.model}
}

// DetectBurnoutRisk assesses burnout risk from work patterns.
func (s *AIService) DetectBurnoutRisk(ctx context.Context, email string, patterns WorkPatterns) (BurnoutInsight, InsightMeta) {
	fallback := BurnoutInsight{
		RiskScore:       4,
		RiskLevel:       "low",
		Signs:           []string{},
		Recommendations: []string{"Maintain current pace"},
		Urgency:         "not urgent",
	}
	if !s.Enabled() {
		return fallback, mockMeta()
	}

	prompt := fmt.Sprintf(`You are a workplace wellness expert. Assess burnout risk based on work patterns.

Developer: %s
Work Patterns:
- Commits per day: %.2f
- Weekend commits: %d
- Late night commits (after 10 PM): %d
- Issues resolved: %d
- Days off in last month: %d
- Work consistency: %s

Respond ONLY with valid JSON (no markdown):
{
  "riskScore": <number 0-10>,
  "riskLevel": "<low|medium|high|critical>",
  "signs": [<list of max 3 burnout signs>],
  "recommendations": [<list of max 3 wellness recommendations>],
  "urgency": "<not urgent|moderate|urgent>"
}`, email, patterns.CommitsPerDay, patterns.WeekendCommits, patterns.LateNightCommits,
		patterns.IssuesResolved, patterns.TimeOffDays, patterns.WorkConsistency)

	var insight BurnoutInsight
	if err := s.callModel(ctx, prompt, &insight); err != nil {
		s.logger.Warn("burnout analysis failed, using fallback",
			zap.String("email", email),
			zap.Error(err),
		)
		return fallback, mockMeta()
	}
	return insight, InsightMeta{Success: true, AnalyzedAt: utils.NowRFC3339(), Model: s.model}
}

// AnalyzeTeamPerformance assesses an organization's team metrics.
func (s *AIService) AnalyzeTeamPerformance(ctx context.Context, organizationID string, sample TeamSample) (TeamInsight, InsightMeta) {
	fallback := TeamInsight{
		HealthScore:     8,
		Velocity:        "increasing",
		Collaboration:   "good",
		Insights:        []string{"Team is productive", "Good collaboration"},
		Recommendations: []string{"Continue current pace"},
		Trend:           "positive",
	}
	if !s.Enabled() {
		return fallback, mockMeta()
	}

	prompt := fmt.Sprintf(`You are a team performance analyst. Analyze team metrics and provide insights.

Organization: %s
Team Data:
- Members: %d
- Total commits: %d
- Total PRs: %d
- Total issues: %d
- Team velocity: %s

Respond ONLY with valid JSON (no markdown):
{
  "healthScore": <number 0-10>,
  "velocity": "<decreasing|stable|increasing>",
  "collaboration": "<poor|fair|good|excellent>",
  "insights": [<list of max 3 key insights>],
  "recommendations": [<list of max 3 improvements>],
  "trend": "<negative|neutral|positive>"
}`, organizationID, sample.MemberCount, sample.TotalCommits, sample.TotalPRs, sample.TotalIssues, sample.Velocity)

	var insight TeamInsight
	if err := s.callModel(ctx, prompt, &insight); err != nil {
		s.logger.Warn("team analysis failed, using fallback",
			zap.String("organization_id", organizationID),
			zap.Error(err),
		)
		return fallback, mockMeta()
	}
	return insight, InsightMeta{Success: true, AnalyzedAt: utils.NowRFC3339(), Model: s.model}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *AIService) callModel(ctx context.Context, prompt string, out interface{}) error {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: aiSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		return fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("X-Title", "DevInsights-AI")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return fmt.Errorf("decoding chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if chat.Error != nil {
			return fmt.Errorf("model API returned %d: %s", resp.StatusCode, chat.Error.Message)
		}
		return fmt.Errorf("model API returned %d", resp.StatusCode)
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return fmt.Errorf("empty model response")
	}

	return decodeModelJSON(chat.Choices[0].Message.Content, out)
}

// decodeModelJSON extracts the first JSON object from a model answer that
// may be wrapped in prose or markdown fences.
func decodeModelJSON(answer string, out interface{}) error {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(answer[start:end+1]), out); err != nil {
		return fmt.Errorf("parsing model JSON: %w", err)
	}
	return nil
}
