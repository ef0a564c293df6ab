package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-sis/scheduler-api/internal/dto"
	"github.com/meridian-sis/scheduler-api/internal/models"
	"github.com/meridian-sis/scheduler-api/pkg/config"
)

const advisoryModel = "llama3.2"

// AdvisoryService asks an external model runner for a narrative read on a
// conflict analysis. It is strictly best-effort: every failure path returns
// an opinion with Available=false and a nil error, never a 5xx to callers.
type AdvisoryService struct {
	cfg    config.AdvisoryConfig
	client *http.Client
	logger *zap.Logger
}

// NewAdvisoryService constructs an AdvisoryService with sane defaults.
func NewAdvisoryService(cfg config.AdvisoryConfig, logger *zap.Logger) *AdvisoryService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisoryService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Enabled reports whether the advisory backend is configured for use.
func (s *AdvisoryService) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Assess grades a conflict analysis and, when the backend is reachable, adds
// a narrative summary. The score and issue lists never depend on the backend.
func (s *AdvisoryService) Assess(ctx context.Context, analysis *models.ConflictAnalysis) dto.AdvisoryOpinion {
	if analysis == nil {
		return dto.AdvisoryOpinion{Available: false, HealthScore: 0}
	}

	opinion := gradeAnalysis(analysis)
	if !s.Enabled() {
		return opinion
	}

	start := time.Now()
	summary, err := s.generate(ctx, buildAdvisoryPrompt(analysis))
	if err != nil {
		s.logger.Warn("advisory backend unavailable", zap.Error(err))
		return opinion
	}

	opinion.Available = true
	opinion.Summary = summary
	opinion.Model = advisoryModel
	opinion.DurationMS = time.Since(start).Milliseconds()
	return opinion
}

// gradeAnalysis derives the deterministic part of an opinion: a 0-100 health
// score with severity-weighted deductions, plus issue and suggestion lists.
func gradeAnalysis(analysis *models.ConflictAnalysis) dto.AdvisoryOpinion {
	opinion := dto.AdvisoryOpinion{Available: false, HealthScore: 100}
	deductions := map[string]int{
		models.SeverityCritical: 20,
		models.SeverityHigh:     15,
		models.SeverityMedium:   8,
		models.SeverityLow:      3,
	}
	suggested := map[string]bool{}
	for _, c := range analysis.Conflicts {
		opinion.HealthScore -= deductions[c.Severity]
		if c.Hard {
			opinion.CriticalIssues = append(opinion.CriticalIssues, c.Description)
		} else {
			opinion.Warnings = append(opinion.Warnings, c.Description)
		}
		if hint := suggestionFor(c.Type); hint != "" && !suggested[c.Type] {
			suggested[c.Type] = true
			opinion.Suggestions = append(opinion.Suggestions, hint)
		}
	}
	if opinion.HealthScore < 0 {
		opinion.HealthScore = 0
	}
	return opinion
}

func suggestionFor(conflictType string) string {
	switch conflictType {
	case models.ConflictTeacherDoubleBooked:
		return "move one of the clashing slots to another teacher or period"
	case models.ConflictRoomDoubleBooked:
		return "relocate one of the clashing slots to a free room"
	case models.ConflictRoomOverCapacity:
		return "move the section to a larger room or cap its enrollment"
	case models.ConflictMissingLab, models.ConflictMissingEquipment:
		return "swap in a room that meets the course's facility requirements"
	case models.ConflictTeacherOverloaded:
		return "shift sections from overloaded teachers to lighter schedules"
	case models.ConflictTeacherUnqualified:
		return "assign a subject-qualified teacher to the flagged sections"
	case models.ConflictRoomDistance:
		return "cluster a teacher's back-to-back periods in one building"
	case models.ConflictMissingPrep, models.ConflictMissingBreak, models.ConflictMissingLunch:
		return "free a midday period for teachers scheduled wall to wall"
	}
	return ""
}

func (s *AdvisoryService) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: advisoryModel, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisory backend returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	text := strings.TrimSpace(decoded.Response)
	if text == "" {
		return "", fmt.Errorf("advisory backend returned an empty response")
	}
	return text, nil
}

func buildAdvisoryPrompt(analysis *models.ConflictAnalysis) string {
	var b strings.Builder
	b.WriteString("You are reviewing a school timetable conflict analysis. ")
	b.WriteString("Give a short assessment of schedule health and the two most impactful fixes.\n\n")
	fmt.Fprintf(&b, "Total conflicts: %d (hard: %d, soft: %d)\n",
		analysis.TotalCount, analysis.HardCount, analysis.SoftCount)
	fmt.Fprintf(&b, "Total penalty: %d\n", analysis.TotalPenalty)
	for _, c := range analysis.Conflicts {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", c.Severity, c.Type, c.Description)
		if len(b.String()) > 4000 {
			b.WriteString("- (truncated)\n")
			break
		}
	}
	return b.String()
}
