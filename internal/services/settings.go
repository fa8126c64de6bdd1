package services

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// SettingsService stores free-form key/value preferences such as the currency.
type SettingsService struct {
	repo   *storage.SQLiteRepository
	logger *slog.Logger
}

func NewSettingsService(repo *storage.SQLiteRepository) *SettingsService {
	return &SettingsService{
		repo:   repo,
		logger: slog.Default().With(log.FieldComponent, log.ComponentApp),
	}
}

func (s *SettingsService) ListSettings(ctx context.Context) ([]core.Setting, error) {
	return s.repo.Queries().ListSettings(ctx)
}

func (s *SettingsService) GetSetting(ctx context.Context, key string) (core.Setting, error) {
	st, err := s.repo.Queries().GetSetting(ctx, key)
	if err != nil {
		return core.Setting{}, lookupErr(err, core.NotFoundf("setting %q not found", key))
	}
	return st, nil
}

// PutSetting creates or replaces a setting.
func (s *SettingsService) PutSetting(ctx context.Context, key, value string) (core.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return core.Setting{}, core.Validationf("setting key cannot be empty")
	}
	if core.TooLong(key, 100) {
		return core.Setting{}, core.Validationf("setting key too long (max 100 characters)")
	}
	if core.TooLong(value, 1000) {
		return core.Setting{}, core.Validationf("setting value too long (max 1000 characters)")
	}
	st := core.Setting{Key: key, Value: value}
	if err := s.repo.Queries().PutSetting(ctx, st); err != nil {
		return core.Setting{}, err
	}
	s.logger.InfoContext(ctx, "Setting saved", log.FieldOperation, log.OpUpdate, "key", key)
	return st, nil
}
