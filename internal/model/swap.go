package model

import "time"

type SwapStatus string

const (
	SwapAvailable SwapStatus = "available"
	SwapClaimed   SwapStatus = "claimed"
	SwapCancelled SwapStatus = "cancelled"
)

// SwapOffer puts a chore up for grabs. Status only moves from available to
// claimed or cancelled.
type SwapOffer struct {
	ID            string     `json:"id"`
	ChoreID       string     `json:"choreId"`
	ChoreName     string     `json:"choreName"`
	OfferedBy     string     `json:"offeredBy"`
	OfferedByName string     `json:"offeredByName"`
	OfferedAt     time.Time  `json:"offeredAt"`
	Status        SwapStatus `json:"status"`
	ClaimedBy     *string    `json:"claimedBy,omitempty"`
	ClaimedByName *string    `json:"claimedByName,omitempty"`
	ClaimedAt     *time.Time `json:"claimedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
}
