package repository

import (
	"context"

	repo "wms/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	warehouses    repo.WarehouseRepository
	inventory     repo.InventoryRepository
	transfers     repo.TransferRepository
	transferItems repo.TransferItemRepository
	products      repo.ProductRepository
}

func (r *txReposGorm) Warehouses() repo.WarehouseRepository       { return r.warehouses }
func (r *txReposGorm) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *txReposGorm) Transfers() repo.TransferRepository         { return r.transfers }
func (r *txReposGorm) TransferItems() repo.TransferItemRepository { return r.transferItems }
func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			warehouses:    NewWarehouseGormRepository(tx),
			inventory:     NewInventoryGormRepository(tx),
			transfers:     NewTransferGormRepository(tx),
			transferItems: NewTransferItemGormRepository(tx),
			products:      NewProductGormRepository(tx),
		}
		return fn(r)
	})
}
