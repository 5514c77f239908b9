package postgres

import (
	"context"
	"errors"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"gorm.io/gorm"
)

type ExportStorage struct {
	db *gorm.DB
}

func NewExportStorage(db *gorm.DB) *ExportStorage {
	return &ExportStorage{
		db: db,
	}
}

// Create is a function that records a delivered export in the database.
func (s *ExportStorage) Create(ctx context.Context, export *entity.Export) (*entity.Export, error) {
	err := s.db.WithContext(ctx).Create(export).Error
	return export, err
}

// GetByKey returns the latest export recorded for key.
func (s *ExportStorage) GetByKey(ctx context.Context, key string) (*entity.Export, error) {
	var export entity.Export
	err := s.db.WithContext(ctx).Where("key = ?", key).Order("created_at desc").First(&export).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrExportNotFound
	}
	return &export, err
}

// Count is a function that gets the count of exports from the database.
func (s *ExportStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.Export{}).Count(&count).Error
	return count, err
}

// GetWithPagination is a function that gets a list of exports from the database with pagination.
func (s *ExportStorage) GetWithPagination(ctx context.Context, offset, limit int, order string) ([]entity.Export, error) {
	var exports []entity.Export
	err := s.db.WithContext(ctx).Order(order).Offset(offset).Limit(limit).Find(&exports).Error
	return exports, err
}
