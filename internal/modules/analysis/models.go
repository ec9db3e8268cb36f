package analysis

import "time"

// Analysis is the stored AI assessment for one instrument. Chance and
// Risk are 0-100 scores, higher meaning more upside or more danger.
type Analysis struct {
	Ticker            string    `json:"ticker"`
	Chance            int       `json:"chance"`
	ChanceExplanation string    `json:"chance_explanation"`
	Risk              int       `json:"risk"`
	RiskExplanation   string    `json:"risk_explanation"`
	UpdatedAt         time.Time `json:"updated_at"`
}
