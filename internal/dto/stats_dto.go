package dto

// LineStatistics aggregates the raw score values recorded against one line.
// Common and individual values are pooled into a single population.
type LineStatistics struct {
	LineUID  string   `json:"line_uid"`
	Title    string   `json:"title"`
	MaxScore float64  `json:"max_score"`
	Type     string   `json:"type"`
	Count    int      `json:"count"`
	Average  float64  `json:"average"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
}

// FormStatisticsResponse carries the per-line statistics for one form.
type FormStatisticsResponse struct {
	FormID           uint             `json:"form_id"`
	FormTitle        string           `json:"form_title"`
	TotalEvaluations int              `json:"total_evaluations"`
	Lines            []LineStatistics `json:"lines"`
}

// OverviewStatsResponse carries the global entity counts.
type OverviewStatsResponse struct {
	Students    int64 `json:"students"`
	Promotions  int64 `json:"promotions"`
	Groups      int64 `json:"groups"`
	SubGroups   int64 `json:"subgroups"`
	Forms       int64 `json:"forms"`
	Evaluations int64 `json:"evaluations"`
}
