package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"doner/internal/models"
	"doner/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// AddItemCommand adds a menu item. Price is kept as text so it is parsed once,
// as an exact decimal.
type AddItemCommand struct {
	Name        string `json:"name" validate:"required,max=100"`
	Price       string `json:"price" validate:"required"`
	Category    string `json:"category" validate:"required,max=50"`
	Emoji       string `json:"emoji" validate:"max=16"`
	Description string `json:"description" validate:"max=500"`
}

// DeleteItemCommand removes a menu item by name.
type DeleteItemCommand struct {
	Name string `json:"name" validate:"required"`
}

// AdminService applies catalog mutations on behalf of the administrator.
type AdminService struct {
	catalog  repositories.CatalogRepository
	adminID  int64
	validate *validator.Validate
}

// NewAdminService creates a new AdminService. An adminID of 0 disables every
// mutation.
func NewAdminService(catalog repositories.CatalogRepository, adminID int64) *AdminService {
	return &AdminService{
		catalog:  catalog,
		adminID:  adminID,
		validate: validator.New(),
	}
}

func (s *AdminService) authorize(callerID int64, action string) error {
	if s.adminID == 0 || callerID != s.adminID {
		log.Printf("Unauthorized %s attempt by user %d", action, callerID)
		return ErrUnauthorized
	}
	return nil
}

// AddItem validates cmd and inserts the item into the catalog.
func (s *AdminService) AddItem(ctx context.Context, callerID int64, cmd AddItemCommand) (*models.CatalogItem, error) {
	if err := s.authorize(callerID, "add item"); err != nil {
		return nil, err
	}

	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return nil, ErrInvalidName
	}
	if err := s.validate.Struct(cmd); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				switch e.Field() {
				case "Name":
					return nil, fmt.Errorf("%w: %s", ErrInvalidName, cmd.Name)
				case "Price":
					return nil, ErrInvalidPrice
				}
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	price, err := decimal.NewFromString(cmd.Price)
	if err != nil || price.IsNegative() || !price.Equal(price.Round(2)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrice, cmd.Price)
	}

	if _, err := s.catalog.GetByName(ctx, cmd.Name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, cmd.Name)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check menu item %s: %w", cmd.Name, err)
	}

	item := &models.CatalogItem{
		Name:        cmd.Name,
		Price:       price,
		Description: cmd.Description,
		Category:    cmd.Category,
		Emoji:       cmd.Emoji,
	}
	if err := s.catalog.Create(ctx, item); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, cmd.Name)
		}
		return nil, fmt.Errorf("failed to add menu item %s: %w", cmd.Name, err)
	}
	log.Printf("Menu item %q added by admin %d at %s", item.Name, callerID, item.Price.StringFixed(2))
	return item, nil
}

// DeleteItem removes the named item. Staged carts and orders keep their own
// snapshots and are not touched.
func (s *AdminService) DeleteItem(ctx context.Context, callerID int64, cmd DeleteItemCommand) error {
	if err := s.authorize(callerID, "delete item"); err != nil {
		return err
	}
	if err := s.validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if err := s.catalog.DeleteByName(ctx, cmd.Name); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, cmd.Name)
		}
		return fmt.Errorf("failed to delete menu item %s: %w", cmd.Name, err)
	}
	log.Printf("Menu item %q deleted by admin %d", cmd.Name, callerID)
	return nil
}

// ParseCommand turns bot command text into an *AddItemCommand or a
// *DeleteItemCommand.
func ParseCommand(text string) (interface{}, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	name := fields[0]
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}

	switch name {
	case "/add":
		if len(fields) < 6 {
			return nil, fmt.Errorf("%w: usage: /add <name> <price> <category> <emoji> <description>", ErrInvalidCommand)
		}
		return &AddItemCommand{
			Name:        fields[1],
			Price:       fields[2],
			Category:    fields[3],
			Emoji:       fields[4],
			Description: strings.Join(fields[5:], " "),
		}, nil
	case "/del":
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), fields[0]))
		if rest == "" {
			return nil, fmt.Errorf("%w: usage: /del <name>", ErrInvalidCommand)
		}
		return &DeleteItemCommand{Name: rest}, nil
	default:
		return nil, fmt.Errorf("%w: unknown command %s", ErrInvalidCommand, name)
	}
}

// Execute parses and runs a bot command, returning the reply for the admin.
func (s *AdminService) Execute(ctx context.Context, callerID int64, text string) (string, error) {
	if err := s.authorize(callerID, "command"); err != nil {
		return "", err
	}
	cmd, err := ParseCommand(text)
	if err != nil {
		return "", err
	}

	switch c := cmd.(type) {
	case *AddItemCommand:
		item, err := s.AddItem(ctx, callerID, *c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Menu item '%s' added successfully.", item.Name), nil
	case *DeleteItemCommand:
		if err := s.DeleteItem(ctx, callerID, *c); err != nil {
			return "", err
		}
		return fmt.Sprintf("Menu item '%s' deleted successfully.", c.Name), nil
	}
	return "", ErrInvalidCommand
}
