package model

import (
	"time"

	"gorm.io/gorm"
)

// 商品マスタ。在庫コアは存在と有効フラグしか見ない。
type Product struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU       string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"sku"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
