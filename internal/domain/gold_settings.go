package domain

import "time"

// GoldSettings is append-only: the latest row is the rate in effect.
type GoldSettings struct {
	ID                  int64     `json:"id" db:"id"`
	GoldRate            float64   `json:"gold_rate" db:"gold_rate"`
	GSTRate             float64   `json:"gst_rate" db:"gst_rate"`
	MakingChargePerGram float64   `json:"making_charge_per_gram" db:"making_charge_per_gram"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}
