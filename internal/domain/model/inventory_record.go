package model

import "time"

// 在庫台帳。1行 = (倉庫, 商品)。
// 不変条件: 0 <= Reserved <= Quantity
type InventoryRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WarehouseID int64     `gorm:"not null;uniqueIndex:uq_warehouse_product" json:"warehouse_id"`
	ProductID   int64     `gorm:"not null;uniqueIndex:uq_warehouse_product" json:"product_id"`
	Quantity    int64     `gorm:"not null;default:0" json:"quantity"`
	Reserved    int64     `gorm:"not null;default:0" json:"reserved"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 引当可能数。予約分は物理在庫からまだ減っていない。
func (r InventoryRecord) Available() int64 {
	return r.Quantity - r.Reserved
}
