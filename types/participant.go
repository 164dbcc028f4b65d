package types

import "time"

// Participant represents a member of a trip's shared ledger.
// Participants with open balances are never deleted; they are
// deactivated so historical expenses keep reconciling.
type Participant struct {
	ID        string    `json:"id"`
	TripID    string    `json:"tripId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	IsCreator bool      `json:"isCreator"`
	IsActive  bool      `json:"isActive"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// AddParticipantRequest is the payload for adding a member to a trip ledger.
type AddParticipantRequest struct {
	UserID string `json:"userId" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email"`
}
