package models

type EventType string

const (
	EventDepositCreated            EventType = "deposit_created"
	EventDepositRefunded           EventType = "deposit_refunded"
	EventAddressedDepositCreated   EventType = "addressed_deposit_created"
	EventAddressedDepositClaimed   EventType = "addressed_deposit_claimed"
	EventAddressedDepositRefunded  EventType = "addressed_deposit_refunded"
	EventAddressedDepositCancelled EventType = "addressed_deposit_cancelled"
)

// Event is emitted exactly once per successful mutating operation.
type Event struct {
	Type EventType `json:"type"`
	ID   uint64    `json:"id"`
}
