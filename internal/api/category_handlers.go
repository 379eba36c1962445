package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/deadlymenace/x-personal/internal/domain"
	"github.com/deadlymenace/x-personal/internal/service"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "createCategory",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories",
		Summary:     "Create category",
		Tags:        []string{"Categories"},
	}, s.handleCreateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/suggestions",
		Summary:     "Suggest categories",
		Description: "Asks the classifier to propose categories from uncategorized bookmarks",
		Tags:        []string{"Categories"},
	}, s.handleSuggestCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCategory",
		Method:      http.MethodPatch,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Update category",
		Tags:        []string{"Categories"},
	}, s.handleUpdateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCategory",
		Method:      http.MethodDelete,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Delete category",
		Description: "Deletes a category; its bookmarks become uncategorized",
		Tags:        []string{"Categories"},
	}, s.handleDeleteCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "autoCategorize",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories/{id}/auto-categorize",
		Summary:     "Auto-categorize",
		Description: "Assigns matching uncategorized bookmarks to this category",
		Tags:        []string{"Categories"},
	}, s.handleAutoCategorize)
}

// === DTOs ===

// CategoriesOutput wraps a category listing for Huma.
type CategoriesOutput struct {
	Body struct {
		Categories []*domain.Category `json:"categories" doc:"All categories in display order"`
	}
}

// CategoryRequest is the request body for creating or updating a category.
type CategoryRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=50" doc:"Category name"`
	Icon      string `json:"icon,omitempty" validate:"omitempty,max=50" doc:"Lucide icon name"`
	SortOrder int    `json:"sort_order,omitempty" validate:"gte=0" doc:"Display position"`
}

// CreateCategoryInput wraps the create category request for Huma.
type CreateCategoryInput struct {
	Body CategoryRequest
}

// CategoryOutput wraps a single category for Huma.
type CategoryOutput struct {
	Body domain.Category
}

// UpdateCategoryInput wraps the update category request for Huma.
type UpdateCategoryInput struct {
	ID   int64 `path:"id" doc:"Category ID"`
	Body CategoryRequest
}

// CategoryIDInput identifies a category.
type CategoryIDInput struct {
	ID int64 `path:"id" doc:"Category ID"`
}

// CategorizeOutput wraps an auto-categorize summary for Huma.
type CategorizeOutput struct {
	Body service.CategorizeResult
}

// SuggestionsOutput wraps category suggestions for Huma.
type SuggestionsOutput struct {
	Body struct {
		Suggestions []service.CategorySuggestion `json:"suggestions" doc:"Proposed categories"`
	}
}

// === Handlers ===

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*CategoriesOutput, error) {
	categories, err := s.services.Category.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &CategoriesOutput{}
	out.Body.Categories = categories
	return out, nil
}

func (s *Server) handleCreateCategory(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	category, err := s.services.Category.Create(ctx, input.Body.Name, input.Body.Icon, input.Body.SortOrder)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: *category}, nil
}

func (s *Server) handleUpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	category, err := s.services.Category.Update(ctx, input.ID, input.Body.Name, input.Body.Icon, input.Body.SortOrder)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: *category}, nil
}

func (s *Server) handleDeleteCategory(ctx context.Context, input *CategoryIDInput) (*struct{}, error) {
	if err := s.services.Category.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleAutoCategorize(ctx context.Context, input *CategoryIDInput) (*CategorizeOutput, error) {
	result, err := s.services.Categorizer.AutoCategorize(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CategorizeOutput{Body: *result}, nil
}

func (s *Server) handleSuggestCategories(ctx context.Context, _ *struct{}) (*SuggestionsOutput, error) {
	suggestions, err := s.services.Categorizer.SuggestCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := &SuggestionsOutput{}
	out.Body.Suggestions = suggestions
	return out, nil
}
