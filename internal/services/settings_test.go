package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestSettings(t *testing.T) {
	s := NewSettingsService(newTestRepo(t))
	ctx := context.Background()

	all, err := s.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.PutSetting(ctx, "currency", "EUR")
	require.NoError(t, err)
	got, err := s.GetSetting(ctx, "currency")
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Value)

	_, err = s.GetSetting(ctx, "theme")
	assert.True(t, core.IsNotFound(err))

	_, err = s.PutSetting(ctx, " ", "x")
	assert.True(t, core.IsValidation(err))
	_, err = s.PutSetting(ctx, "k", strings.Repeat("v", 1001))
	assert.True(t, core.IsValidation(err))
}
