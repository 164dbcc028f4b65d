package handlers

import (
	"net/http"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/models"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/gin-gonic/gin"
)

// ChecklistHandler serves the shared trip checklist endpoints.
type ChecklistHandler struct {
	checklistModel *models.ChecklistModel
}

func NewChecklistHandler(model *models.ChecklistModel) *ChecklistHandler {
	return &ChecklistHandler{checklistModel: model}
}

func (h *ChecklistHandler) CreateItemHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	var req types.ChecklistItemCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}
	req.TripID = tripID

	item, err := h.checklistModel.CreateItem(c.Request.Context(), tripID, userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *ChecklistHandler) ListItemsHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	items, err := h.checklistModel.ListItems(c.Request.Context(), tripID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if items == nil {
		items = []*types.ChecklistItem{}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ChecklistHandler) UpdateItemHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	var req types.ChecklistItemUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	item, err := h.checklistModel.UpdateItem(c.Request.Context(), tripID, userID, c.Param("itemId"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ChecklistHandler) DeleteItemHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	if err := h.checklistModel.DeleteItem(c.Request.Context(), tripID, userID, c.Param("itemId")); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
