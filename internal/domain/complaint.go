// Package domain holds the types shared across the complaint priority service.
package domain

import "time"

// Complaint is one labeled row of the training dataset.
type Complaint struct {
	Text     string
	Priority string
}

// Prediction is the outcome of classifying one complaint.
type Prediction struct {
	Priority     string             `json:"priority"`
	Confidence   float64            `json:"confidence"`
	AllScores    map[string]float64 `json:"all_scores"`
	ModelVersion string             `json:"model_version"`
}

// PredictionRecord is a prediction persisted to the history log.
type PredictionRecord struct {
	ID                int64     `db:"id"                 json:"id"`
	ComplaintID       *int64    `db:"complaint_id"       json:"complaint_id,omitempty"`
	ComplaintText     string    `db:"complaint_text"     json:"complaint_text"`
	PredictedPriority string    `db:"predicted_priority" json:"predicted_priority"`
	ConfidenceScore   float64   `db:"confidence_score"   json:"confidence_score"`
	ModelVersion      string    `db:"model_version"      json:"model_version"`
	RequestID         string    `db:"request_id"         json:"request_id,omitempty"`
	CreatedAt         time.Time `db:"created_at"         json:"created_at"`
}

// DatasetStats summarizes the training dataset.
type DatasetStats struct {
	TotalSamples         int            `json:"total_samples"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
	Classes              []string       `json:"classes"`
	ModelType            string         `json:"model_type"`
}

// ModelType is the model description reported by the stats endpoint.
const ModelType = "Naive Bayes with TF-IDF"
