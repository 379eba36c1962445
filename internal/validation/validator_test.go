package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadlymenace/x-personal/internal/errors"
	"github.com/deadlymenace/x-personal/internal/validation"
)

type testRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"omitempty,max=20"`
	Sort  string `json:"sort" validate:"omitempty,oneof=bookmarked_at created_at likes impressions retweets"`
}

func TestValidate_Passes(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{Name: "go", Sort: "likes"})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{Sort: "random"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	fields, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["name"])
	assert.Contains(t, fields["sort"], "must be one of")
}

func TestValidate_UsesJSONTagNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{Name: ""})
	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	fields := domainErr.Details.(map[string]string)
	_, hasJSONName := fields["name"]
	_, hasGoName := fields["Name"]
	assert.True(t, hasJSONName)
	assert.False(t, hasGoName)
}
