package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/deadlymenace/x-personal/internal/domain"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags with bookmark counts",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Tags:        []string{"Tags"},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Update tag",
		Tags:        []string{"Tags"},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag, its rules, and its bookmark associations",
		Tags:        []string{"Tags"},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "attachTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookmarks/{id}/tags/{tagID}",
		Summary:     "Attach tag",
		Description: "Attaches a tag to a bookmark; attaching twice is a no-op",
		Tags:        []string{"Tags"},
	}, s.handleAttachTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "detachTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/bookmarks/{id}/tags/{tagID}",
		Summary:     "Detach tag",
		Tags:        []string{"Tags"},
	}, s.handleDetachTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRules",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/rules",
		Summary:     "List auto-tag rules",
		Tags:        []string{"Rules"},
	}, s.handleListRules)

	huma.Register(s.api, huma.Operation{
		OperationID: "createRule",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/rules",
		Summary:     "Create auto-tag rule",
		Tags:        []string{"Rules"},
	}, s.handleCreateRule)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRule",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/rules/{id}",
		Summary:     "Delete auto-tag rule",
		Description: "Deletes a rule; tags it already applied stay",
		Tags:        []string{"Rules"},
	}, s.handleDeleteRule)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyRules",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/rules/apply",
		Summary:     "Apply rules to all bookmarks",
		Tags:        []string{"Rules"},
	}, s.handleApplyRules)
}

// === DTOs ===

// TagsOutput wraps a tag listing for Huma.
type TagsOutput struct {
	Body struct {
		Tags []*domain.Tag `json:"tags" doc:"All tags, most used first"`
	}
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=50" doc:"Tag name"`
	Color string `json:"color,omitempty" validate:"omitempty,max=20" doc:"Display color"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// TagOutput wraps a single tag for Huma.
type TagOutput struct {
	Body domain.Tag
}

// UpdateTagInput wraps the update tag request for Huma.
type UpdateTagInput struct {
	ID   int64 `path:"id" doc:"Tag ID"`
	Body CreateTagRequest
}

// TagIDInput identifies a tag.
type TagIDInput struct {
	ID int64 `path:"id" doc:"Tag ID"`
}

// BookmarkTagInput identifies a bookmark/tag pair.
type BookmarkTagInput struct {
	ID    string `path:"id" doc:"Post ID"`
	TagID int64  `path:"tagID" doc:"Tag ID"`
}

// RulesOutput wraps a rule listing for Huma.
type RulesOutput struct {
	Body struct {
		Rules []*domain.AutoTagRule `json:"rules" doc:"All rules, newest first"`
	}
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	TagID   int64  `json:"tag_id" validate:"required" doc:"Tag the rule applies"`
	Type    string `json:"rule_type" validate:"required,oneof=keyword hashtag author url_domain" doc:"Rule type"`
	Pattern string `json:"pattern" validate:"required,min=1,max=200" doc:"Match pattern"`
}

// CreateRuleInput wraps the create rule request for Huma.
type CreateRuleInput struct {
	Body CreateRuleRequest
}

// RuleOutput wraps a single rule for Huma.
type RuleOutput struct {
	Body domain.AutoTagRule
}

// ApplyRulesResponse reports an apply-all run.
type ApplyRulesResponse struct {
	Processed int `json:"processed" doc:"Bookmarks evaluated"`
}

// ApplyRulesOutput wraps the apply-all response for Huma.
type ApplyRulesOutput struct {
	Body ApplyRulesResponse
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*TagsOutput, error) {
	tags, err := s.services.Tag.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &TagsOutput{}
	out.Body.Tags = tags
	return out, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	tag, err := s.services.Tag.Create(ctx, input.Body.Name, input.Body.Color)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: *tag}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	tag, err := s.services.Tag.Update(ctx, input.ID, input.Body.Name, input.Body.Color)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: *tag}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*struct{}, error) {
	if err := s.services.Tag.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleAttachTag(ctx context.Context, input *BookmarkTagInput) (*struct{}, error) {
	if err := s.services.Tag.Attach(ctx, input.ID, input.TagID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleDetachTag(ctx context.Context, input *BookmarkTagInput) (*struct{}, error) {
	if err := s.services.Tag.Detach(ctx, input.ID, input.TagID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleListRules(ctx context.Context, _ *struct{}) (*RulesOutput, error) {
	rules, err := s.services.Tag.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	out := &RulesOutput{}
	out.Body.Rules = rules
	return out, nil
}

func (s *Server) handleCreateRule(ctx context.Context, input *CreateRuleInput) (*RuleOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	rule, err := s.services.Tag.CreateRule(ctx, input.Body.TagID, domain.RuleType(input.Body.Type), input.Body.Pattern)
	if err != nil {
		return nil, err
	}
	return &RuleOutput{Body: *rule}, nil
}

func (s *Server) handleDeleteRule(ctx context.Context, input *TagIDInput) (*struct{}, error) {
	if err := s.services.Tag.DeleteRule(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleApplyRules(ctx context.Context, _ *struct{}) (*ApplyRulesOutput, error) {
	processed, err := s.services.Tag.ApplyRules(ctx)
	if err != nil {
		return nil, err
	}
	return &ApplyRulesOutput{Body: ApplyRulesResponse{Processed: processed}}, nil
}
