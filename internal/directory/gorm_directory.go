package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/pkg/log"
)

// GormDirectory implements Directory over the application's users table.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a new GORM-based directory.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// Get resolves one participant's profile.
func (d *GormDirectory) Get(ctx context.Context, participantID string) (domain.Participant, error) {
	var model domain.UserModel
	result := d.db.WithContext(ctx).First(&model, "id = ?", participantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return domain.Participant{}, ErrParticipantNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str(log.FieldParticipantID, participantID).Msg("failed to load participant")
		return domain.Participant{}, fmt.Errorf("load participant: %w", result.Error)
	}
	return model.ToDomain(), nil
}

// List returns every participant except excludeID, sorted by display name.
func (d *GormDirectory) List(ctx context.Context, excludeID string) ([]domain.Participant, error) {
	var models []domain.UserModel
	err := d.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Order("display_name ASC").
		Find(&models).Error
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list participants")
		return nil, fmt.Errorf("list participants: %w", err)
	}

	participants := make([]domain.Participant, len(models))
	for i, model := range models {
		participants[i] = model.ToDomain()
	}
	return participants, nil
}
