package repository

import (
	"context"

	"wms/internal/domain/model"
)

// 在庫台帳の永続化と履歴保存をまとめた約束。
//
// 予約・減算系はすべて条件付きUPDATE（WHERE句に不変条件を入れる）で実装すること。
// falseは「ガード条件を満たさなかった」で、呼び出し側が再読込して原因を判定する。
type InventoryRepository interface {
	// 台帳1行を取得。無ければ ErrNotFound。
	FindRecord(ctx context.Context, warehouseID int64, productID int64) (model.InventoryRecord, error)

	// 倉庫内の台帳一覧
	ListByWarehouse(ctx context.Context, warehouseID int64, page int, limit int) ([]model.InventoryRecord, int64, error)

	// 台帳行の冪等upsert（無ければ quantity=0, reserved=0 で作る）
	EnsureRecord(ctx context.Context, warehouseID int64, productID int64) error

	// 引当可能数が足りるときだけ reserved += qty
	ReserveIfAvailable(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error)

	// 予約解放。reserved >= qty のときだけ reserved -= qty
	Release(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error)

	// 予約済み分の物理出庫。reserved >= qty かつ quantity >= qty のときだけ
	// quantity -= qty, reserved -= qty
	DebitReserved(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error)

	// 物理入庫。quantity += qty
	AddQuantity(ctx context.Context, warehouseID int64, productID int64, qty int64) error

	// 物理減算。quantity - qty >= reserved のときだけ減らす
	SubtractQuantity(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error)

	// 現在値の設定。newQty >= reserved のときだけ quantity = newQty
	SetQuantity(ctx context.Context, warehouseID int64, productID int64, newQty int64) (bool, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adj model.StockAdjustment) error
}
