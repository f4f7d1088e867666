package repository

import (
	"context"
	"errors"

	"wms/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 倉庫の永続化（保存・取得）だけを約束。
type WarehouseRepository interface {
	FindByID(ctx context.Context, id int64) (model.Warehouse, error)
	FindByCode(ctx context.Context, code string) (model.Warehouse, error)
	List(ctx context.Context, page int, limit int) ([]model.Warehouse, int64, error)

	Create(ctx context.Context, w model.Warehouse) (model.Warehouse, error)
	Update(ctx context.Context, w model.Warehouse) error
	SoftDelete(ctx context.Context, id int64) error
}
