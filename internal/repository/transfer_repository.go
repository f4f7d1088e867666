package repository

import (
	"context"
	"time"

	"wms/internal/domain/model"
)

// 移動依頼一覧の絞り込み条件。
type TransferListFilter struct {
	Page        int
	Limit       int
	Status      string
	WarehouseID *int64 // 移動元・移動先どちらかに一致
	From        *time.Time
	To          *time.Time
}

// 移動依頼の永続化。
// 遷移系は現在ステータスをWHERE句に入れたCASで、falseなら他の書き込みに先を越されている。
type TransferRepository interface {
	FindByID(ctx context.Context, transferID int64) (model.StockTransfer, error)
	List(ctx context.Context, f TransferListFilter) ([]model.StockTransfer, int64, error)
	Create(ctx context.Context, t model.StockTransfer) (int64, error)

	// PENDING のときだけ IN_TRANSIT へ
	MarkInTransit(ctx context.Context, transferID int64, approvedBy int64, at time.Time) (bool, error)

	// IN_TRANSIT のときだけ COMPLETED へ
	MarkCompleted(ctx context.Context, transferID int64, completedBy int64, at time.Time) (bool, error)

	// ステータスが from のときだけ CANCELLED へ
	MarkCancelled(ctx context.Context, transferID int64, from model.TransferStatus) (bool, error)

	// ステータスが from のときだけ削除
	DeleteIf(ctx context.Context, transferID int64, from model.TransferStatus) (bool, error)

	// 倉庫を参照している未終了（PENDING / IN_TRANSIT）の依頼数
	CountOpenByWarehouse(ctx context.Context, warehouseID int64) (int64, error)
}

// 移動依頼明細の永続化。
type TransferItemRepository interface {
	CreateBulk(ctx context.Context, transferID int64, items []model.TransferItem) error
	ListByTransferID(ctx context.Context, transferID int64) ([]model.TransferItem, error)
	DeleteByTransferID(ctx context.Context, transferID int64) error
}
