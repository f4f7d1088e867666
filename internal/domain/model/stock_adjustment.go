package model

import "time"

// 在庫数の直接操作の種類。
type AdjustOperation string

const (
	AdjustOperationAdd      AdjustOperation = "ADD"
	AdjustOperationSubtract AdjustOperation = "SUBTRACT"
	AdjustOperationSet      AdjustOperation = "SET"
)

//在庫調整の履歴（入荷・破損・棚卸など）

type StockAdjustment struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	WarehouseID    int64           `gorm:"not null;index" json:"warehouse_id"`
	ProductID      int64           `gorm:"not null;index" json:"product_id"`
	AdminUserID    int64           `gorm:"not null;index" json:"admin_user_id"`
	Operation      AdjustOperation `gorm:"type:varchar(20);not null" json:"operation"`
	Amount         int64           `gorm:"not null" json:"amount"`
	QuantityBefore int64           `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int64           `gorm:"not null" json:"quantity_after"`
	Reason         string          `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
