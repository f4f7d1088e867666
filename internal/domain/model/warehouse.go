package model

import (
	"time"

	"gorm.io/gorm"
)

// 倉庫。在庫台帳（InventoryRecord）の持ち主。
type Warehouse struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string         `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
