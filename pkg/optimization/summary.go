// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single floor search.
type Summary struct {
	Variable        string   `json:"variable"`
	Metric          string   `json:"metric"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Floor           float64  `json:"floor"`
	MetricValue     float64  `json:"metricValue"`
	Headroom        float64  `json:"headroom"`
	IsValid         bool     `json:"isValid"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}
