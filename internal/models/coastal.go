package models

// CoastalRecord is one observation served by the coastal backend. Date is an
// ISO-8601 string, so lexical comparison yields chronological order.
type CoastalRecord struct {
	ID            int64   `json:"id"`
	Region        string  `json:"region"`
	Date          string  `json:"date"`
	SeaLevel      float64 `json:"seaLevel"`
	ErosionRate   float64 `json:"erosionRate"`
	Precipitation float64 `json:"precipitation"`
}

// PredictionRequest is the payload posted to the prediction endpoint.
type PredictionRequest struct {
	Region        string  `json:"region"`
	Date          string  `json:"date"`
	SeaLevel      float64 `json:"seaLevel"`
	ErosionRate   float64 `json:"erosionRate"`
	Precipitation float64 `json:"precipitation"`
}

// PredictionResult is the backend's answer to a PredictionRequest.
type PredictionResult struct {
	ID         int64   `json:"id,omitempty"`
	Region     string  `json:"region"`
	Date       string  `json:"date"`
	Likelihood float64 `json:"likelihood"`
}
