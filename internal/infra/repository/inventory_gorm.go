package repository

import (
	"context"
	"errors"

	"wms/internal/domain/model"
	repo "wms/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) FindRecord(ctx context.Context, warehouseID int64, productID int64) (model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.InventoryRecord{}, repo.ErrNotFound
	}
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return rec, nil
}

func (r *InventoryGormRepository) ListByWarehouse(ctx context.Context, warehouseID int64, page int, limit int) ([]model.InventoryRecord, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.InventoryRecord{}).
		Where("warehouse_id = ?", warehouseID).
		Count(&total).Error; err != nil {
		return []model.InventoryRecord{}, 0, err
	}

	var items []model.InventoryRecord
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("product_id asc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.InventoryRecord{}, 0, err
	}

	return items, total, nil
}

// 台帳行の冪等upsert（既にあれば何もしない）
func (r *InventoryGormRepository) EnsureRecord(ctx context.Context, warehouseID int64, productID int64) error {
	rec := model.InventoryRecord{
		WarehouseID: warehouseID,
		ProductID:   productID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "warehouse_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&rec).Error
}

// 引当可能数が足りるときだけ予約する
func (r *InventoryGormRepository) ReserveIfAvailable(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("warehouse_id = ? AND product_id = ? AND quantity - reserved >= ?", warehouseID, productID, qty).
		Update("reserved", gorm.Expr("reserved + ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 予約解放（キャンセル・削除）
func (r *InventoryGormRepository) Release(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("warehouse_id = ? AND product_id = ? AND reserved >= ?", warehouseID, productID, qty).
		Update("reserved", gorm.Expr("reserved - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 移動完了時の物理出庫。予約分と物理在庫を同時に減らす
func (r *InventoryGormRepository) DebitReserved(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("warehouse_id = ? AND product_id = ? AND reserved >= ? AND quantity >= ?", warehouseID, productID, qty, qty).
		Updates(map[string]interface{}{
			"quantity": gorm.Expr("quantity - ?", qty),
			"reserved": gorm.Expr("reserved - ?", qty),
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 物理入庫
func (r *InventoryGormRepository) AddQuantity(ctx context.Context, warehouseID int64, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		Update("quantity", gorm.Expr("quantity + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 物理減算。予約分を割り込まないときだけ
func (r *InventoryGormRepository) SubtractQuantity(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("warehouse_id = ? AND product_id = ? AND quantity - ? >= reserved", warehouseID, productID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 現在値の設定。予約分を下回る値は拒否
func (r *InventoryGormRepository) SetQuantity(ctx context.Context, warehouseID int64, productID int64, newQty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("warehouse_id = ? AND product_id = ? AND reserved <= ?", warehouseID, productID, newQty).
		Update("quantity", newQty)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.StockAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
