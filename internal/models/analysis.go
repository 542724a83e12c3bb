package models

import "encoding/json"

// APTPrediction is one classifier verdict. Index points back at the packet
// row it was produced for; the join is positional and owned by the backend.
type APTPrediction struct {
	Confidence float64 `json:"confidence"`
	Index      int     `json:"index"`
	Prediction string  `json:"prediction"`
}

type APTResult struct {
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	DataShape    int             `json:"data_shape"`
	FeaturesUsed []string        `json:"features_used"`
	Predictions  []APTPrediction `json:"predictions"`
}

type PhishingQuery struct {
	URL    string `json:"url,omitempty" form:"url"`
	Domain string `json:"domain,omitempty" form:"domain"`
	HTML   string `json:"html,omitempty" form:"html"`
}

// OpaqueResult carries payloads this tier only relays.
type OpaqueResult struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}
