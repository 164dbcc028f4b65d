package models

import (
	"context"
	"strings"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/internal/events"
	"github.com/TripTally/trip-tally-backend/internal/store"
	"github.com/TripTally/trip-tally-backend/logger"
	"github.com/TripTally/trip-tally-backend/types"
)

// ChecklistModel is a thin repository model over shared trip checklist
// items. Unlike the ledger it carries no derived state at all.
type ChecklistModel struct {
	store          store.ChecklistStore
	ledger         *LedgerModel
	eventPublisher types.EventPublisher
}

func NewChecklistModel(store store.ChecklistStore, ledger *LedgerModel, eventPublisher types.EventPublisher) *ChecklistModel {
	return &ChecklistModel{
		store:          store,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

func (cm *ChecklistModel) CreateItem(ctx context.Context, tripID, userID string, req *types.ChecklistItemCreate) (*types.ChecklistItem, error) {
	log := logger.GetLogger()

	if err := cm.ledger.verifyTripMembership(ctx, tripID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.ValidationFailed("invalid checklist item", "text is required")
	}

	item := &types.ChecklistItem{
		TripID:    tripID,
		Text:      req.Text,
		Status:    types.ChecklistStatusPending,
		CreatedBy: userID,
	}
	id, err := cm.store.CreateItem(ctx, item)
	if err != nil {
		log.Errorw("Failed to create checklist item", "tripId", tripID, "error", err)
		return nil, errors.NewDatabaseError(err)
	}
	item.ID = id

	cm.publish(ctx, types.EventTypeChecklistItemCreated, tripID, userID, item)
	return item, nil
}

func (cm *ChecklistModel) ListItems(ctx context.Context, tripID, userID string) ([]*types.ChecklistItem, error) {
	if err := cm.ledger.verifyTripMembership(ctx, tripID, userID); err != nil {
		return nil, err
	}
	items, err := cm.store.ListItems(ctx, tripID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return items, nil
}

func (cm *ChecklistModel) UpdateItem(ctx context.Context, tripID, userID, itemID string, update *types.ChecklistItemUpdate) (*types.ChecklistItem, error) {
	if err := cm.ledger.verifyTripMembership(ctx, tripID, userID); err != nil {
		return nil, err
	}
	if update.Status != nil {
		switch *update.Status {
		case types.ChecklistStatusPending, types.ChecklistStatusDone:
		default:
			return nil, errors.ValidationFailed("invalid checklist item", "unknown status: "+string(*update.Status))
		}
	}

	item, err := cm.getScopedItem(ctx, tripID, itemID)
	if err != nil {
		return nil, err
	}

	updated, err := cm.store.UpdateItem(ctx, item.ID, update)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("Checklist item", itemID)
		}
		return nil, errors.NewDatabaseError(err)
	}

	cm.publish(ctx, types.EventTypeChecklistItemUpdated, tripID, userID, updated)
	return updated, nil
}

func (cm *ChecklistModel) DeleteItem(ctx context.Context, tripID, userID, itemID string) error {
	if err := cm.ledger.verifyTripMembership(ctx, tripID, userID); err != nil {
		return err
	}
	item, err := cm.getScopedItem(ctx, tripID, itemID)
	if err != nil {
		return err
	}

	if err := cm.store.DeleteItem(ctx, item.ID); err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("Checklist item", itemID)
		}
		return errors.NewDatabaseError(err)
	}

	cm.publish(ctx, types.EventTypeChecklistItemDeleted, tripID, userID, map[string]string{"itemId": itemID})
	return nil
}

func (cm *ChecklistModel) getScopedItem(ctx context.Context, tripID, itemID string) (*types.ChecklistItem, error) {
	item, err := cm.store.GetItem(ctx, itemID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors.NotFound("Checklist item", itemID)
		}
		return nil, errors.NewDatabaseError(err)
	}
	if item.TripID != tripID {
		return nil, errors.NotFound("Checklist item", itemID)
	}
	return item, nil
}

func (cm *ChecklistModel) publish(ctx context.Context, eventType types.EventType, tripID, userID string, payload interface{}) {
	if cm.eventPublisher == nil {
		return
	}
	if err := events.PublishWithPayload(ctx, cm.eventPublisher, eventType, tripID, userID, payload); err != nil {
		logger.GetLogger().Warnw("Failed to publish event",
			"type", eventType,
			"tripId", tripID,
			"error", err,
		)
	}
}
