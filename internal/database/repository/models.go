package repository

import "time"

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Analysis is one recorded attempt, completed or failed.
type Analysis struct {
	ID              string
	Variant         string
	Organ           string
	ClinicalContext string
	ImageName       string
	Status          string
	Observations    string
	Diagnosis       string
	Confidence      string
	Disclaimer      string
	Error           string
	CreatedAt       time.Time
}
