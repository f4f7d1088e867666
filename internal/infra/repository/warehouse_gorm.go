package repository

import (
	"context"
	"errors"

	"wms/internal/domain/model"
	repo "wms/internal/repository"

	"gorm.io/gorm"
)

type WarehouseGormRepository struct {
	db *gorm.DB
}

func NewWarehouseGormRepository(db *gorm.DB) *WarehouseGormRepository {
	return &WarehouseGormRepository{db: db}
}

func (r *WarehouseGormRepository) FindByID(ctx context.Context, id int64) (model.Warehouse, error) {
	var w model.Warehouse
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Warehouse{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Warehouse{}, err
	}
	return w, nil
}

func (r *WarehouseGormRepository) FindByCode(ctx context.Context, code string) (model.Warehouse, error) {
	var w model.Warehouse
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Warehouse{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Warehouse{}, err
	}
	return w, nil
}

func (r *WarehouseGormRepository) List(ctx context.Context, page int, limit int) ([]model.Warehouse, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Warehouse{}).Count(&total).Error; err != nil {
		return []model.Warehouse{}, 0, err
	}

	var items []model.Warehouse
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Order("id asc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Warehouse{}, 0, err
	}

	return items, total, nil
}

func (r *WarehouseGormRepository) Create(ctx context.Context, w model.Warehouse) (model.Warehouse, error) {
	if err := r.db.WithContext(ctx).Create(&w).Error; err != nil {
		return model.Warehouse{}, err
	}
	return w, nil
}

func (r *WarehouseGormRepository) Update(ctx context.Context, w model.Warehouse) error {
	res := r.db.WithContext(ctx).Model(&model.Warehouse{}).
		Where("id = ?", w.ID).
		Updates(map[string]interface{}{
			"code":       w.Code,
			"name":       w.Name,
			"address":    w.Address,
			"is_active":  w.IsActive,
			"updated_at": w.UpdatedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *WarehouseGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Warehouse{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
