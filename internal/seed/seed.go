package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"shareit/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// Fixtures is the yaml layout of a seed file. Items reference their owner
// by email.
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Items []ItemFixture `yaml:"items"`
}

type UserFixture struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type ItemFixture struct {
	OwnerEmail  string `yaml:"owner_email"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   bool   `yaml:"available"`
}

type Store interface {
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
}

type Result struct {
	UsersCreated int
	ItemsCreated int
	ItemsUpdated int
	// Users maps every fixture email to its stored user.
	Users map[string]*models.User
}

func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(fx.Users) == 0 && len(fx.Items) == 0 {
		return nil, fmt.Errorf("seed file has no users or items")
	}
	return &fx, nil
}

// Apply writes fixtures into store. It can be re-run: users are matched by
// email and items by owner and name, existing items get their description
// and availability updated.
func Apply(ctx context.Context, store Store, fx *Fixtures, logger *zerolog.Logger) (*Result, error) {
	existing, err := store.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	byEmail := make(map[string]*models.User, len(existing))
	for _, u := range existing {
		byEmail[strings.ToLower(u.Email)] = u
	}

	res := &Result{Users: make(map[string]*models.User, len(fx.Users))}
	for _, uf := range fx.Users {
		key := strings.ToLower(strings.TrimSpace(uf.Email))
		if key == "" {
			continue
		}
		if u, ok := byEmail[key]; ok {
			res.Users[key] = u
			continue
		}

		u := &models.User{Name: strings.TrimSpace(uf.Name), Email: strings.TrimSpace(uf.Email)}
		if err := store.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", uf.Email, err)
		}
		byEmail[key] = u
		res.Users[key] = u
		res.UsersCreated++
	}

	for _, itf := range fx.Items {
		name := strings.TrimSpace(itf.Name)
		if name == "" {
			continue
		}
		owner, ok := byEmail[strings.ToLower(strings.TrimSpace(itf.OwnerEmail))]
		if !ok {
			return nil, fmt.Errorf("item %s: unknown owner %q", name, itf.OwnerEmail)
		}

		created, err := upsertItem(ctx, store, owner.ID, name, itf)
		if err != nil {
			return nil, err
		}
		if created {
			res.ItemsCreated++
		} else {
			res.ItemsUpdated++
		}
	}

	logger.Info().
		Int("users_created", res.UsersCreated).
		Int("items_created", res.ItemsCreated).
		Int("items_updated", res.ItemsUpdated).
		Msg("seed applied")
	return res, nil
}

func upsertItem(ctx context.Context, store Store, ownerID int64, name string, itf ItemFixture) (bool, error) {
	owned, err := store.GetItemsByOwner(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("list items of %d: %w", ownerID, err)
	}
	for _, it := range owned {
		if it.Name != name {
			continue
		}
		it.Description = itf.Description
		it.Available = itf.Available
		if err := store.UpdateItem(ctx, it); err != nil {
			return false, fmt.Errorf("update item %s: %w", name, err)
		}
		return false, nil
	}

	item := &models.Item{
		OwnerID:     ownerID,
		Name:        name,
		Description: itf.Description,
		Available:   itf.Available,
	}
	if err := store.CreateItem(ctx, item); err != nil {
		return false, fmt.Errorf("create item %s: %w", name, err)
	}
	return true, nil
}
