package model

import "time"

// Voucher represents a prepaid meal voucher held in the ledger.
//
// The db column names mirror the legacy store schema and must not change:
// a reimplementation sharing the store with the legacy system relies on them.
// Amount is the string form of the face value (e.g. "50"), again per the
// legacy schema.
type Voucher struct {
	Code       string     `json:"code" db:"code"`
	Amount     string     `json:"amount" db:"amount"`
	ExpiryDate time.Time  `json:"expiryDate" db:"expiry_date"`
	IsUsed     bool       `json:"isUsed" db:"is_used"`
	DateAdded  time.Time  `json:"dateAdded" db:"date_added"`
	DateUsed   *time.Time `json:"dateUsed,omitempty" db:"date_used"`
	Source     string     `json:"source" db:"source"`
	SourceURL  string     `json:"sourceUrl,omitempty" db:"source_url"`
}

// IngestSummary reports the outcome of one ingestion run.
type IngestSummary struct {
	Added   int     `json:"added"`
	Total   float64 `json:"total"`
	Skipped int     `json:"skipped"`
}

// Reservation is a session-scoped hold on one voucher pending operator
// confirmation. It is never persisted.
type Reservation struct {
	SessionID   string    `json:"sessionId"`
	Voucher     *Voucher  `json:"voucher"`
	PresentedAt time.Time `json:"presentedAt"`
}
