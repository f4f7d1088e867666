package repository

import (
	"context"
	"errors"
	"time"

	"wms/internal/domain/model"
	repo "wms/internal/repository"

	"gorm.io/gorm"
)

type TransferGormRepository struct {
	db *gorm.DB
}

func NewTransferGormRepository(db *gorm.DB) *TransferGormRepository {
	return &TransferGormRepository{db: db}
}

func (r *TransferGormRepository) FindByID(ctx context.Context, transferID int64) (model.StockTransfer, error) {
	var t model.StockTransfer
	err := r.db.WithContext(ctx).Where("id = ?", transferID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StockTransfer{}, repo.ErrNotFound
	}
	if err != nil {
		return model.StockTransfer{}, err
	}
	return t, nil
}

func (r *TransferGormRepository) List(ctx context.Context, f repo.TransferListFilter) ([]model.StockTransfer, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.StockTransfer{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//倉庫絞り込み（移動元・移動先のどちらか）
	if f.WarehouseID != nil {
		q = q.Where("from_warehouse_id = ? OR to_warehouse_id = ?", *f.WarehouseID, *f.WarehouseID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("requested_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("requested_date <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.StockTransfer{}, 0, err
	}

	var items []model.StockTransfer
	offset := (f.Page - 1) * f.Limit
	err := q.Order("id desc").
		Limit(f.Limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.StockTransfer{}, 0, err
	}

	return items, total, nil
}

func (r *TransferGormRepository) Create(ctx context.Context, t model.StockTransfer) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return 0, err
	}
	return t.ID, nil
}

// PENDING のときだけ承認できる
func (r *TransferGormRepository) MarkInTransit(ctx context.Context, transferID int64, approvedBy int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.StockTransfer{}).
		Where("id = ? AND status = ?", transferID, model.TransferStatusPending).
		Updates(map[string]interface{}{
			"status":        model.TransferStatusInTransit,
			"approved_by":   approvedBy,
			"approved_date": at,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IN_TRANSIT のときだけ完了できる
func (r *TransferGormRepository) MarkCompleted(ctx context.Context, transferID int64, completedBy int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.StockTransfer{}).
		Where("id = ? AND status = ?", transferID, model.TransferStatusInTransit).
		Updates(map[string]interface{}{
			"status":         model.TransferStatusCompleted,
			"completed_by":   completedBy,
			"completed_date": at,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 読み取ったステータスのままのときだけキャンセルできる
func (r *TransferGormRepository) MarkCancelled(ctx context.Context, transferID int64, from model.TransferStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.StockTransfer{}).
		Where("id = ? AND status = ?", transferID, from).
		Update("status", model.TransferStatusCancelled)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 読み取ったステータスのままのときだけ削除できる
func (r *TransferGormRepository) DeleteIf(ctx context.Context, transferID int64, from model.TransferStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", transferID, from).
		Delete(&model.StockTransfer{})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TransferGormRepository) CountOpenByWarehouse(ctx context.Context, warehouseID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.StockTransfer{}).
		Where("(from_warehouse_id = ? OR to_warehouse_id = ?) AND status IN ?",
			warehouseID, warehouseID,
			[]model.TransferStatus{model.TransferStatusPending, model.TransferStatusInTransit}).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
