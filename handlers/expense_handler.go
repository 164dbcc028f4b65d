package handlers

import (
	"net/http"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/logger"
	"github.com/TripTally/trip-tally-backend/middleware"
	"github.com/TripTally/trip-tally-backend/models"
	"github.com/TripTally/trip-tally-backend/types"
	"github.com/gin-gonic/gin"
)

// ExpenseHandler serves the expense CRUD and balance endpoints of a
// trip's ledger.
type ExpenseHandler struct {
	ledgerModel *models.LedgerModel
}

func NewExpenseHandler(model *models.LedgerModel) *ExpenseHandler {
	return &ExpenseHandler{ledgerModel: model}
}

// tripScope extracts the trip ID and authenticated user ID common to
// every ledger route.
func tripScope(c *gin.Context) (tripID, userID string, ok bool) {
	tripID = c.Param("id")
	if tripID == "" {
		_ = c.Error(errors.ValidationFailed("Trip ID missing", "trip id is required"))
		return "", "", false
	}
	userID = middleware.GetUserID(c)
	if userID == "" {
		_ = c.Error(errors.Unauthorized("missing_auth", "User not authenticated"))
		return "", "", false
	}
	return tripID, userID, true
}

// CreateExpenseHandler records a new expense on the trip's ledger.
func (h *ExpenseHandler) CreateExpenseHandler(c *gin.Context) {
	log := logger.GetLogger()

	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	var req types.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugw("Invalid expense payload", "error", err, "tripId", tripID)
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	expense, err := h.ledgerModel.CreateExpense(c.Request.Context(), tripID, userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, expense)
}

// GetExpenseHandler returns a single expense.
func (h *ExpenseHandler) GetExpenseHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	expense, err := h.ledgerModel.GetExpense(c.Request.Context(), tripID, userID, c.Param("expenseId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

// ListExpensesHandler lists the trip's expenses. Supported query
// parameters: category, q (title/notes search), sort (date|amount),
// order (asc|desc).
func (h *ExpenseHandler) ListExpensesHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	filter := types.ExpenseFilter{
		SearchText: c.Query("q"),
	}
	if category := c.Query("category"); category != "" {
		if !types.ValidCategory(types.ExpenseCategory(category)) {
			_ = c.Error(errors.ValidationFailed("Invalid filter", "unknown category: "+category))
			return
		}
		filter.Category = types.ExpenseCategory(category)
	}

	sortBy := types.SortByDate
	switch c.DefaultQuery("sort", "date") {
	case "date":
	case "amount":
		sortBy = types.SortByAmount
	default:
		_ = c.Error(errors.ValidationFailed("Invalid sort field", "sort must be date or amount"))
		return
	}

	descending := false
	switch c.DefaultQuery("order", "asc") {
	case "asc":
	case "desc":
		descending = true
	default:
		_ = c.Error(errors.ValidationFailed("Invalid sort order", "order must be asc or desc"))
		return
	}

	expenses, err := h.ledgerModel.ListExpenses(c.Request.Context(), tripID, userID, filter, sortBy, descending)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if expenses == nil {
		expenses = []*types.Expense{}
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// UpdateExpenseHandler applies a partial update to an expense.
func (h *ExpenseHandler) UpdateExpenseHandler(c *gin.Context) {
	log := logger.GetLogger()

	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	var req types.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugw("Invalid expense update payload", "error", err, "tripId", tripID)
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	expense, err := h.ledgerModel.UpdateExpense(c.Request.Context(), tripID, userID, c.Param("expenseId"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

// DeleteExpenseHandler removes an expense from the ledger.
func (h *ExpenseHandler) DeleteExpenseHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	if err := h.ledgerModel.DeleteExpense(c.Request.Context(), tripID, userID, c.Param("expenseId")); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetBalancesHandler returns the recomputed per-member balances and
// the minimal settlement plan for the trip.
func (h *ExpenseHandler) GetBalancesHandler(c *gin.Context) {
	tripID, userID, ok := tripScope(c)
	if !ok {
		return
	}

	summary, err := h.ledgerModel.GetLedgerSummary(c.Request.Context(), tripID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
