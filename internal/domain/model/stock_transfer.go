package model

import "time"

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusInTransit TransferStatus = "IN_TRANSIT"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

// 終端ステータスかどうか（これ以上遷移できない）。
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusCancelled
}

// 倉庫間の在庫移動依頼。
// 作成時点で移動元の在庫を予約し、完了時に物理在庫を動かす。
type StockTransfer struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference       string         `gorm:"type:varchar(36);not null;uniqueIndex" json:"reference"`
	FromWarehouseID int64          `gorm:"not null;index" json:"from_warehouse_id"`
	ToWarehouseID   int64          `gorm:"not null;index" json:"to_warehouse_id"`
	Status          TransferStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Note            string         `gorm:"type:text" json:"note"`

	//操作者と時刻は遷移ごとに記録する（巻き戻さない）
	RequestedBy   int64      `gorm:"not null" json:"requested_by"`
	ApprovedBy    *int64     `json:"approved_by,omitempty"`
	CompletedBy   *int64     `json:"completed_by,omitempty"`
	RequestedDate time.Time  `gorm:"not null" json:"requested_date"`
	ApprovedDate  *time.Time `json:"approved_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 移動依頼の明細。
type TransferItem struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransferID int64     `gorm:"not null;index" json:"transfer_id"`
	ProductID  int64     `gorm:"not null" json:"product_id"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	Notes      string    `gorm:"type:varchar(255)" json:"notes"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
