package domain

import "time"

// MonitoringTask status constants.
const (
	TaskStatusActive   = "active"
	TaskStatusRunning  = "running"
	TaskStatusError    = "error"
	TaskStatusDisabled = "disabled"
)

// MonitoringTask schedules periodic price re-checks for one competitor
// domain. Created by user action, mutated by toggle/update, consumed by
// the scheduler; deleting it removes the schedule entry and nothing else.
type MonitoringTask struct {
	ID               string   `json:"id"`
	UserID           string   `json:"user_id"`
	CompetitorDomain string   `json:"competitor_domain"`
	ProductURLs      []string `json:"product_urls,omitempty"`
	// Frequency is a cron expression.
	Frequency string     `json:"frequency"`
	Enabled   bool       `json:"enabled"`
	Status    string     `json:"status"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PriceObservation is one entry in a product's price history.
// ChangePct is the percent change against the previous observation,
// nil for the first one.
type PriceObservation struct {
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	ObservedAt time.Time `json:"observed_at"`
	ChangePct  *float64  `json:"change_pct,omitempty"`
}

// PriceHistory is the result of a price-history lookup: the most recent
// observation plus the time-ordered list of prior ones.
type PriceHistory struct {
	ProductURL string             `json:"product_url"`
	Current    *PriceObservation  `json:"current,omitempty"`
	History    []PriceObservation `json:"history"`
}
