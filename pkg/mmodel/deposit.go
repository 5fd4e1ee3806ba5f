package mmodel

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChainEventID derives the unique deposit event key from its chain coordinates.
func ChainEventID(chain, txHash string, logIndex uint) string {
	return fmt.Sprintf("%s:%s:%d", chain, txHash, logIndex)
}

// Deposit is one observed on-chain deposit event. State transitions monotonically
// seen -> confirmed -> credited, or to the terminal rejected.
type Deposit struct {
	EventID   string `json:"eventId"`
	Chain     string `json:"chain"`
	TxHash    string `json:"txHash"`
	LogIndex  uint   `json:"logIndex"`
	Wallet    string `json:"wallet"`
	Asset     string `json:"asset"`
	RawAmount string `json:"rawAmount"`

	BlockNumber uint64 `json:"blockNumber"`

	// AmountUSD is priced at confirmation time; Credits is its credit-unit conversion.
	AmountUSD decimal.Decimal `json:"amountUsd"`
	Credits   int64           `json:"credits"`

	State string `json:"state"`

	// UserID is resolved by wallet linkage or magic-amount matching.
	UserID *uuid.UUID `json:"userId,omitempty"`

	// RejectReason explains a terminal rejected state.
	RejectReason string `json:"rejectReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChainCursor is the restartable high-water mark of a watched chain.
type ChainCursor struct {
	Chain     string    `json:"chain"`
	Block     uint64    `json:"block"`
	UpdatedAt time.Time `json:"updatedAt"`
}
