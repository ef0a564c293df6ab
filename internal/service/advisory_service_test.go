package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/scheduler-api/internal/models"
	"github.com/meridian-sis/scheduler-api/pkg/config"
)

func sampleAnalysis() *models.ConflictAnalysis {
	return &models.ConflictAnalysis{
		ScheduleID: "sched-1",
		Conflicts: []models.Conflict{
			{ID: "conf-1", Type: models.ConflictTeacherDoubleBooked, Severity: models.SeverityCritical, Hard: true, Description: "teacher booked twice in period 3"},
		},
		TotalCount:   1,
		HardCount:    1,
		TotalPenalty: 100,
	}
}

func TestAdvisoryAssessSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "teacher booked twice in period 3")

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "  Resolve the double booking first.  "})
	}))
	defer server.Close()

	svc := NewAdvisoryService(config.AdvisoryConfig{Enabled: true, BaseURL: server.URL}, nil)
	opinion := svc.Assess(context.Background(), sampleAnalysis())

	assert.True(t, opinion.Available)
	assert.Equal(t, "Resolve the double booking first.", opinion.Summary)
	assert.NotEmpty(t, opinion.Model)
	assert.Equal(t, 80, opinion.HealthScore)
	assert.Equal(t, []string{"teacher booked twice in period 3"}, opinion.CriticalIssues)
}

func TestAdvisoryGradesAnalysisWithoutBackend(t *testing.T) {
	svc := NewAdvisoryService(config.AdvisoryConfig{Enabled: false}, nil)

	analysis := sampleAnalysis()
	analysis.Conflicts = append(analysis.Conflicts,
		models.Conflict{ID: "conf-2", Type: models.ConflictTeacherOverloaded, Severity: models.SeverityMedium, Hard: false, Description: "teacher holds 7 slots, limit is 6"},
		models.Conflict{ID: "conf-3", Type: models.ConflictRoomDistance, Severity: models.SeverityLow, Hard: false, Description: "cross-campus walk between periods 2 and 3"},
	)

	opinion := svc.Assess(context.Background(), analysis)
	assert.False(t, opinion.Available)
	assert.Empty(t, opinion.Summary)
	assert.Equal(t, 69, opinion.HealthScore, "100 minus 20 critical, 8 medium, 3 low")
	assert.Equal(t, []string{"teacher booked twice in period 3"}, opinion.CriticalIssues)
	assert.Len(t, opinion.Warnings, 2)
	assert.Len(t, opinion.Suggestions, 3, "one hint per conflict type")
}

func TestAdvisoryHealthScoreFloorsAtZero(t *testing.T) {
	svc := NewAdvisoryService(config.AdvisoryConfig{Enabled: false}, nil)

	analysis := &models.ConflictAnalysis{ScheduleID: "sched-1"}
	for i := 0; i < 8; i++ {
		analysis.Conflicts = append(analysis.Conflicts, models.Conflict{
			Type: models.ConflictRoomDoubleBooked, Severity: models.SeverityCritical, Hard: true,
		})
	}

	opinion := svc.Assess(context.Background(), analysis)
	assert.Zero(t, opinion.HealthScore)
	assert.Len(t, opinion.CriticalIssues, 8)
}

func TestAdvisoryAssessBackendDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	svc := NewAdvisoryService(config.AdvisoryConfig{Enabled: true, BaseURL: server.URL}, nil)
	opinion := svc.Assess(context.Background(), sampleAnalysis())

	assert.False(t, opinion.Available)
	assert.Empty(t, opinion.Summary)
}

func TestAdvisoryAssessNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewAdvisoryService(config.AdvisoryConfig{Enabled: true, BaseURL: server.URL}, nil)
	opinion := svc.Assess(context.Background(), sampleAnalysis())

	assert.False(t, opinion.Available)
}

func TestAdvisoryAssessEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "   "})
	}))
	defer server.Close()

	svc := NewAdvisoryService(config.AdvisoryConfig{Enabled: true, BaseURL: server.URL}, nil)
	opinion := svc.Assess(context.Background(), sampleAnalysis())

	assert.False(t, opinion.Available)
}

func TestAdvisoryDisabled(t *testing.T) {
	svc := NewAdvisoryService(config.AdvisoryConfig{Enabled: false}, nil)

	opinion := svc.Assess(context.Background(), sampleAnalysis())
	assert.False(t, opinion.Available)

	opinion = svc.Assess(context.Background(), nil)
	assert.False(t, opinion.Available)
}

func TestAdvisoryTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "too late"})
	}))
	defer server.Close()

	svc := NewAdvisoryService(config.AdvisoryConfig{Enabled: true, BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)
	opinion := svc.Assess(context.Background(), sampleAnalysis())

	assert.False(t, opinion.Available)
}
