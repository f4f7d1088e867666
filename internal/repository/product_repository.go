package repository

import (
	"context"

	"wms/internal/domain/model"
)

// 商品マスタは読み取りだけ（管理は別システム）。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}
