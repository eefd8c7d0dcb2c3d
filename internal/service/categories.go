package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"innkeeper/internal/docstore"
	"innkeeper/internal/domain"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

// CategoryService manages room categories.
type CategoryService struct {
	store  docstore.Store
	audit  domain.AuditSink
	logger *zerolog.Logger
}

func NewCategoryService(store docstore.Store, audit domain.AuditSink, logger *zerolog.Logger) *CategoryService {
	return &CategoryService{store: store, audit: audit, logger: logger}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	raws, err := s.store.List(ctx, models.CollectionCategories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := docstore.DecodeAll[models.Category](raws)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].CategoryName != categories[j].CategoryName {
			return categories[i].CategoryName < categories[j].CategoryName
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

func (s *CategoryService) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	id, err := s.store.Add(ctx, models.CollectionCategories, map[string]any{
		"categoryName": name,
	})
	if err != nil {
		return nil, fmt.Errorf("add category: %w", err)
	}

	s.record(ctx, "category.add", models.CollectionCategories, id, name)
	return &models.Category{ID: id, CategoryName: name}, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID, name string) error {
	if name == "" {
		return fmt.Errorf("category name is required")
	}
	err := s.store.Update(ctx, models.CollectionCategories, categoryID, map[string]any{
		"categoryName": name,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("update category %s: %w", categoryID, err)
	}

	s.record(ctx, "category.update", models.CollectionCategories, categoryID, name)
	return nil
}

// DeleteCategory removes the category. Rooms pointing at it keep the
// dangling id; room reads show "Unknown" from then on.
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	if err := s.store.Delete(ctx, models.CollectionCategories, categoryID); err != nil {
		return fmt.Errorf("delete category %s: %w", categoryID, err)
	}

	s.record(ctx, "category.delete", models.CollectionCategories, categoryID, "")
	return nil
}

func (s *CategoryService) record(ctx context.Context, action, entity, entityID, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entity, entityID, detail); err != nil && s.logger != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
