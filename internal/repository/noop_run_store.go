package repository

import (
	"context"

	"RegimeShift/internal/domain/models"
	domrepo "RegimeShift/internal/domain/repository"
)

// NoopRunStore is used when history.backend is "none".
type NoopRunStore struct{}

func (NoopRunStore) Init(context.Context) error                   { return nil }
func (NoopRunStore) Save(context.Context, models.RunRecord) error { return nil }
func (NoopRunStore) Health(context.Context) error                 { return nil }
func (NoopRunStore) Close() error                                 { return nil }

func (NoopRunStore) Recent(context.Context, int) ([]models.RunRecord, error) {
	return []models.RunRecord{}, nil
}

var _ domrepo.RunStore = NoopRunStore{}
