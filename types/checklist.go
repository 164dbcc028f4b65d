package types

import "time"

type ChecklistStatus string

const (
	ChecklistStatusPending ChecklistStatus = "PENDING"
	ChecklistStatusDone    ChecklistStatus = "DONE"
)

// Ptr returns a pointer to the status, convenient for partial updates.
func (s ChecklistStatus) Ptr() *ChecklistStatus { return &s }

// ChecklistItem is a shared packing/preparation item for a trip.
type ChecklistItem struct {
	ID        string          `json:"id"`
	TripID    string          `json:"tripId"`
	Text      string          `json:"text"`
	Status    ChecklistStatus `json:"status"`
	CreatedBy string          `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ChecklistItemCreate is the payload for adding a checklist item.
type ChecklistItemCreate struct {
	TripID string `json:"tripId"`
	Text   string `json:"text" binding:"required"`
}

// ChecklistItemUpdate carries partial updates to a checklist item.
type ChecklistItemUpdate struct {
	Text   *string          `json:"text,omitempty"`
	Status *ChecklistStatus `json:"status,omitempty"`
}
