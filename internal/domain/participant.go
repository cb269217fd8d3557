package domain

import "time"

// Participant is a tutor who can earn credits and receive payouts.
type Participant struct {
	ID                 string
	Name               string
	SettlementCurrency string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
