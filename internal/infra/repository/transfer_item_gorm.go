package repository

import (
	"context"

	"wms/internal/domain/model"

	"gorm.io/gorm"
)

type TransferItemGormRepository struct {
	db *gorm.DB
}

func NewTransferItemGormRepository(db *gorm.DB) *TransferItemGormRepository {
	return &TransferItemGormRepository{db: db}
}

func (r *TransferItemGormRepository) CreateBulk(ctx context.Context, transferID int64, items []model.TransferItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]model.TransferItem, 0, len(items))
	for _, it := range items {
		it.TransferID = transferID
		rows = append(rows, it)
	}

	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *TransferItemGormRepository) ListByTransferID(ctx context.Context, transferID int64) ([]model.TransferItem, error) {
	var items []model.TransferItem
	err := r.db.WithContext(ctx).
		Where("transfer_id = ?", transferID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *TransferItemGormRepository) DeleteByTransferID(ctx context.Context, transferID int64) error {
	return r.db.WithContext(ctx).
		Where("transfer_id = ?", transferID).
		Delete(&model.TransferItem{}).Error
}
