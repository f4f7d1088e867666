package model

import "time"

// 移動依頼のライフサイクル操作、在庫調整など。
type AuditAction string

const (
	AuditActionCreateTransfer   AuditAction = "CREATE_TRANSFER"
	AuditActionApproveTransfer  AuditAction = "APPROVE_TRANSFER"
	AuditActionCompleteTransfer AuditAction = "COMPLETE_TRANSFER"
	AuditActionCancelTransfer   AuditAction = "CANCEL_TRANSFER"
	AuditActionDeleteTransfer   AuditAction = "DELETE_TRANSFER"
	AuditActionAdjustStock      AuditAction = "ADJUST_STOCK"
	AuditActionCreateWarehouse  AuditAction = "CREATE_WAREHOUSE"
	AuditActionUpdateWarehouse  AuditAction = "UPDATE_WAREHOUSE"
	AuditActionDeleteWarehouse  AuditAction = "DELETE_WAREHOUSE"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceTransfer  AuditResourceType = "transfer"
	AuditResourceWarehouse AuditResourceType = "warehouse"
	AuditResourceInventory AuditResourceType = "inventory"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザー（管理者）のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
