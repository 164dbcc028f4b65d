package handlers

import (
	"net/http"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/logger"
	"github.com/TripTally/trip-tally-backend/models"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/gin-gonic/gin"
)

// MemberHandler serves trip ledger membership endpoints.
type MemberHandler struct {
	ledgerModel *models.LedgerModel
}

func NewMemberHandler(model *models.LedgerModel) *MemberHandler {
	return &MemberHandler{ledgerModel: model}
}

// GetTripMembersHandler lists the trip's participants, active and
// deactivated alike.
func (h *MemberHandler) GetTripMembersHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	members, err := h.ledgerModel.ListMembers(c.Request.Context(), tripID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if members == nil {
		members = []*types.Participant{}
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMemberHandler adds a participant to the trip's ledger.
func (h *MemberHandler) AddMemberHandler(c *gin.Context) {
	log := logger.GetLogger()

	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	var req types.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugw("Invalid member payload", "error", err, "tripId", tripID)
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	member, err := h.ledgerModel.AddMember(c.Request.Context(), tripID, userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// RemoveMemberHandler removes a participant outright. Members who have
// paid for or shared in any expense cannot be removed and get a 409;
// deactivation is the alternative.
func (h *MemberHandler) RemoveMemberHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	if err := h.ledgerModel.RemoveMember(c.Request.Context(), tripID, userID, c.Param("memberId")); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeactivateMemberHandler marks a participant inactive while keeping
// their expense history on the ledger.
func (h *MemberHandler) DeactivateMemberHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	if err := h.ledgerModel.DeactivateMember(c.Request.Context(), tripID, userID, c.Param("memberId")); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
