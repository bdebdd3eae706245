package service

import (
	"context"
	"errors"

	"sipndash/internal/dto"
	"sipndash/internal/model"
	"sipndash/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryService defines business operations for product categories.
// Every call is scoped to one catalog.
type CategoryService interface {
	Create(ctx context.Context, catalog model.Catalog, req dto.CreateCategoryRequest) (dto.CategoryResponse, error)
	List(ctx context.Context, catalog model.Catalog, includeInactive bool) ([]dto.CategoryResponse, error)
	Update(ctx context.Context, catalog model.Catalog, id uuid.UUID, req dto.UpdateCategoryRequest) (dto.CategoryResponse, error)
	Deactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

// mapCategory converts a model to a DTO response.
func mapCategory(c model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID,
		Catalog:     c.Catalog.String(),
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
	}
}

func (s *categoryService) Create(ctx context.Context, catalog model.Catalog, req dto.CreateCategoryRequest) (dto.CategoryResponse, error) {
	if err := s.ensureNameFree(ctx, catalog, req.Name, uuid.Nil); err != nil {
		return dto.CategoryResponse{}, err
	}

	c := &model.Category{
		Catalog:     catalog,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CategoryResponse{}, duplicateCategory()
		}
		return dto.CategoryResponse{}, err
	}
	return mapCategory(*c), nil
}

func (s *categoryService) List(ctx context.Context, catalog model.Catalog, includeInactive bool) ([]dto.CategoryResponse, error) {
	list, err := s.repo.List(ctx, catalog, includeInactive)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategory(c))
	}
	return result, nil
}

func (s *categoryService) Update(ctx context.Context, catalog model.Catalog, id uuid.UUID, req dto.UpdateCategoryRequest) (dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, catalog, id)
	if err != nil {
		return dto.CategoryResponse{}, mapNotFound(err, "category", id)
	}

	if req.Name != nil && *req.Name != c.Name {
		if err := s.ensureNameFree(ctx, catalog, *req.Name, id); err != nil {
			return dto.CategoryResponse{}, err
		}
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Active != nil {
		c.Active = *req.Active
	}

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CategoryResponse{}, duplicateCategory()
		}
		return dto.CategoryResponse{}, err
	}
	return mapCategory(*c), nil
}

func (s *categoryService) Deactivate(ctx context.Context, catalog model.Catalog, id uuid.UUID) error {
	return mapNotFound(s.repo.Deactivate(ctx, catalog, id), "category", id)
}

// ensureNameFree fails with ConflictError when another category in catalog already uses name.
func (s *categoryService) ensureNameFree(ctx context.Context, catalog model.Catalog, name string, self uuid.UUID) error {
	existing, err := s.repo.FindByName(ctx, catalog, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return duplicateCategory()
	}
	return nil
}

func duplicateCategory() error {
	return &ConflictError{Message: "a category with that name already exists"}
}
