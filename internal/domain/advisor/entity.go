package advisor

import "time"

// Suggestion flags one access point the model considers suspicious
type Suggestion struct {
	BSSID  string `json:"bssid"`
	SSID   string `json:"ssid"`
	Reason string `json:"reason"`
	// Confidence is low, medium or high
	Confidence string `json:"confidence"`
}

// Advice is the advisor output for one environment. It is never applied
// to records automatically.
type Advice struct {
	EnvironmentID int64        `json:"environment_id"`
	Model         string       `json:"model,omitempty"`
	Summary       string       `json:"summary"`
	Suggestions   []Suggestion `json:"suggestions"`
	CreatedAt     time.Time    `json:"created_at"`
}
