package dto

// BurnoutComponent is one scored factor of a teacher's workload risk.
type BurnoutComponent struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Detail string  `json:"detail,omitempty"`
}

// BurnoutRisk is the full workload risk assessment for a teacher.
type BurnoutRisk struct {
	TeacherID   string             `json:"teacherId"`
	TeacherName string             `json:"teacherName"`
	Score       float64            `json:"score"`
	Level       string             `json:"level"`
	Components  []BurnoutComponent `json:"components"`
}

// Burnout levels ordered by severity.
const (
	BurnoutHigh     = "HIGH"
	BurnoutModerate = "MODERATE"
	BurnoutLow      = "LOW"
	BurnoutMinimal  = "MINIMAL"
)

// SystemMetrics is a lightweight runtime snapshot for the health endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64 `json:"cacheHitRatio"`
	CacheHits                uint64  `json:"cacheHits"`
	CacheMisses              uint64  `json:"cacheMisses"`
	RequestsTotal            uint64  `json:"requestsTotal"`
	AverageRequestDurationMS float64 `json:"averageRequestDurationMs"`
	DBQueryCount             uint64  `json:"dbQueryCount"`
	AverageDBQueryDurationMS float64 `json:"averageDbQueryDurationMs"`
	Goroutines               int     `json:"goroutines"`
	GeneratedAt              string  `json:"generatedAt"`
}
