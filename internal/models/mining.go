package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MiningRecord is a single logged mining event stored in the
// mining_records table. Username and Email are copies of the owning
// user's identity at insert time; there is no foreign key, so historical
// records keep the identity they were created with.
type MiningRecord struct {
	ID             int64           `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	Cryptocurrency string          `json:"cryptocurrency"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SaveMiningRequest is the JSON body for POST /save_mining. Amount
// accepts both JSON numbers and numeric strings.
type SaveMiningRequest struct {
	Cryptocurrency string          `json:"cryptocurrency"`
	Amount         decimal.Decimal `json:"amount"`
}

// SaveMiningResponse is the JSON reply for a successful POST /save_mining.
// Failures are reported as {"success":false,"error":...} instead.
type SaveMiningResponse struct {
	Success     bool    `json:"success"`
	Username    string  `json:"username"`
	TotalAmount float64 `json:"total_amount"`
}
