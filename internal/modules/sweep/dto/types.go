package dto

import "time"

type ReportOutput struct {
	StartedAt      time.Time     `json:"started_at"`
	Cutoff         time.Time     `json:"cutoff"`
	Took           time.Duration `json:"took"`
	Scanned        int           `json:"scanned"`
	Escalated      int           `json:"escalated"`
	DeliveryFailed int           `json:"delivery_failed"`
	Skipped        int           `json:"skipped"`
	Errors         int           `json:"errors"`
}
