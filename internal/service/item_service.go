package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// ItemService is the item directory. Reads always go to the store: the
// seed script and other replicas change availability behind this process.
type ItemService struct {
	repo     domain.ItemStore
	users    domain.UserDirectory
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewItemService(repo domain.ItemStore, users domain.UserDirectory, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		users:    users,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *ItemService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	return s.repo.GetItemByID(ctx, id)
}

func (s *ItemService) CreateItem(ctx context.Context, item *models.Item) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fmt.Errorf("%w: item name is required", domain.ErrInvalidArgument)
	}

	ok, err := s.users.UserExists(ctx, item.OwnerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: owner %d", domain.ErrNotFound, item.OwnerID)
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return err
	}
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", item.OwnerID).Msg("item created")
	return nil
}

// SetItemAvailable toggles whether new bookings may be made on the item.
// Only the owner may change it.
func (s *ItemService) SetItemAvailable(ctx context.Context, ownerID, itemID int64, available bool) (*models.Item, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the owner may change item %d", domain.ErrForbidden, itemID)
	}
	if item.Available == available {
		return item, nil
	}

	updated := *item
	updated.Available = available
	if err := s.repo.UpdateItem(ctx, &updated); err != nil {
		return nil, err
	}
	item = &updated

	if s.eventBus != nil {
		payload := events.ItemEventPayload{ItemID: item.ID, OwnerID: item.OwnerID, Available: available}
		if err := s.eventBus.PublishJSON(events.EventItemAvailable, payload); err != nil {
			s.logger.Error().Err(err).Int64("item_id", item.ID).Msg("publish event error")
		}
	}
	return item, nil
}

func (s *ItemService) GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error) {
	return s.repo.GetItemsByOwner(ctx, ownerID)
}
