package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"wms/internal/domain/model"
	repo "wms/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	warehouses    repo.WarehouseRepository
	inventory     repo.InventoryRepository
	transfers     repo.TransferRepository
	transferItems repo.TransferItemRepository
	products      repo.ProductRepository
}

func (r *TxReposMock) Warehouses() repo.WarehouseRepository       { return r.warehouses }
func (r *TxReposMock) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *TxReposMock) Transfers() repo.TransferRepository         { return r.transfers }
func (r *TxReposMock) TransferItems() repo.TransferItemRepository { return r.transferItems }
func (r *TxReposMock) Products() repo.ProductRepository           { return r.products }

// =====================
// Repository mocks
// =====================

type WarehouseRepoMock struct{ mock.Mock }

func (m *WarehouseRepoMock) FindByID(ctx context.Context, id int64) (model.Warehouse, error) {
	args := m.Called(ctx, id)
	w, _ := args.Get(0).(model.Warehouse)
	return w, args.Error(1)
}

func (m *WarehouseRepoMock) FindByCode(ctx context.Context, code string) (model.Warehouse, error) {
	args := m.Called(ctx, code)
	w, _ := args.Get(0).(model.Warehouse)
	return w, args.Error(1)
}

func (m *WarehouseRepoMock) List(ctx context.Context, page int, limit int) ([]model.Warehouse, int64, error) {
	args := m.Called(ctx, page, limit)
	items, _ := args.Get(0).([]model.Warehouse)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *WarehouseRepoMock) Create(ctx context.Context, w model.Warehouse) (model.Warehouse, error) {
	args := m.Called(ctx, w)
	created, _ := args.Get(0).(model.Warehouse)
	return created, args.Error(1)
}

func (m *WarehouseRepoMock) Update(ctx context.Context, w model.Warehouse) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *WarehouseRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) FindRecord(ctx context.Context, warehouseID int64, productID int64) (model.InventoryRecord, error) {
	args := m.Called(ctx, warehouseID, productID)
	rec, _ := args.Get(0).(model.InventoryRecord)
	return rec, args.Error(1)
}

func (m *InventoryRepoMock) ListByWarehouse(ctx context.Context, warehouseID int64, page int, limit int) ([]model.InventoryRecord, int64, error) {
	args := m.Called(ctx, warehouseID, page, limit)
	items, _ := args.Get(0).([]model.InventoryRecord)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *InventoryRepoMock) EnsureRecord(ctx context.Context, warehouseID int64, productID int64) error {
	args := m.Called(ctx, warehouseID, productID)
	return args.Error(0)
}

func (m *InventoryRepoMock) ReserveIfAvailable(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, warehouseID, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) Release(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, warehouseID, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) DebitReserved(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, warehouseID, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) AddQuantity(ctx context.Context, warehouseID int64, productID int64, qty int64) error {
	args := m.Called(ctx, warehouseID, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) SubtractQuantity(ctx context.Context, warehouseID int64, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, warehouseID, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) SetQuantity(ctx context.Context, warehouseID int64, productID int64, newQty int64) (bool, error) {
	args := m.Called(ctx, warehouseID, productID, newQty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adj model.StockAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

type TransferRepoMock struct{ mock.Mock }

func (m *TransferRepoMock) FindByID(ctx context.Context, transferID int64) (model.StockTransfer, error) {
	args := m.Called(ctx, transferID)
	t, _ := args.Get(0).(model.StockTransfer)
	return t, args.Error(1)
}

func (m *TransferRepoMock) List(ctx context.Context, f repo.TransferListFilter) ([]model.StockTransfer, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.StockTransfer)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *TransferRepoMock) Create(ctx context.Context, t model.StockTransfer) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TransferRepoMock) MarkInTransit(ctx context.Context, transferID int64, approvedBy int64, at time.Time) (bool, error) {
	args := m.Called(ctx, transferID, approvedBy, at)
	return args.Bool(0), args.Error(1)
}

func (m *TransferRepoMock) MarkCompleted(ctx context.Context, transferID int64, completedBy int64, at time.Time) (bool, error) {
	args := m.Called(ctx, transferID, completedBy, at)
	return args.Bool(0), args.Error(1)
}

func (m *TransferRepoMock) MarkCancelled(ctx context.Context, transferID int64, from model.TransferStatus) (bool, error) {
	args := m.Called(ctx, transferID, from)
	return args.Bool(0), args.Error(1)
}

func (m *TransferRepoMock) DeleteIf(ctx context.Context, transferID int64, from model.TransferStatus) (bool, error) {
	args := m.Called(ctx, transferID, from)
	return args.Bool(0), args.Error(1)
}

func (m *TransferRepoMock) CountOpenByWarehouse(ctx context.Context, warehouseID int64) (int64, error) {
	args := m.Called(ctx, warehouseID)
	return args.Get(0).(int64), args.Error(1)
}

type TransferItemRepoMock struct{ mock.Mock }

func (m *TransferItemRepoMock) CreateBulk(ctx context.Context, transferID int64, items []model.TransferItem) error {
	args := m.Called(ctx, transferID, items)
	return args.Error(0)
}

func (m *TransferItemRepoMock) ListByTransferID(ctx context.Context, transferID int64) ([]model.TransferItem, error) {
	args := m.Called(ctx, transferID)
	items, _ := args.Get(0).([]model.TransferItem)
	return items, args.Error(1)
}

func (m *TransferItemRepoMock) DeleteByTransferID(ctx context.Context, transferID int64) error {
	args := m.Called(ctx, transferID)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in usecase tests")
}

// =====================
// helpers
// =====================

type fixedIDGen struct{ id string }

func (g fixedIDGen) NewID() string { return g.id }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func assertErrContains(t *testing.T, err error, substr string) {
	t.Helper()
	assert.Error(t, err)
	if err != nil {
		assert.True(t, strings.Contains(err.Error(), substr),
			"error %q should contain %q", err.Error(), substr)
	}
}

// よく使う組み合わせをまとめて作る
type fixture struct {
	tx        *TxManagerMock
	warehouse *WarehouseRepoMock
	inventory *InventoryRepoMock
	transfer  *TransferRepoMock
	items     *TransferItemRepoMock
	products  *ProductRepoMock
	audit     *AuditRepoMock
}

func newFixture() *fixture {
	f := &fixture{
		warehouse: new(WarehouseRepoMock),
		inventory: new(InventoryRepoMock),
		transfer:  new(TransferRepoMock),
		items:     new(TransferItemRepoMock),
		products:  new(ProductRepoMock),
		audit:     new(AuditRepoMock),
	}
	f.tx = &TxManagerMock{
		Repos: &TxReposMock{
			warehouses:    f.warehouse,
			inventory:     f.inventory,
			transfers:     f.transfer,
			transferItems: f.items,
			products:      f.products,
		},
	}
	f.tx.On("WithinTx", mock.Anything).Return(nil).Maybe()
	return f
}
