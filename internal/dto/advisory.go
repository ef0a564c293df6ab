package dto

// AdvisoryOpinion is a best-effort assessment of a conflict analysis. The
// score and issue lists are computed locally and survive backend outages;
// Available is false when the narrative backend could not be reached, and
// callers must treat the summary as optional either way.
type AdvisoryOpinion struct {
	Available      bool     `json:"available"`
	HealthScore    int      `json:"healthScore"`
	Summary        string   `json:"summary,omitempty"`
	CriticalIssues []string `json:"criticalIssues,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	Model          string   `json:"model,omitempty"`
	DurationMS     int64    `json:"durationMs,omitempty"`
}
