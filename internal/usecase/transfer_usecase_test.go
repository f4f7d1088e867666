package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"wms/internal/domain/model"
	repo "wms/internal/repository"
	"wms/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTransferUsecase(f *fixture) *usecase.TransferUsecase {
	return usecase.NewTransferUsecase(f.tx, f.audit, fixedIDGen{id: "ref-1"}, fixedClock{now: testNow})
}

func activeWarehouse(id int64, code string) model.Warehouse {
	return model.Warehouse{ID: id, Code: code, Name: code + " warehouse", IsActive: true}
}

// =====================
// Create
// =====================

func TestTransferUsecase_Create_Unauthorized(t *testing.T) {
	uc := newTransferUsecase(newFixture())

	_, err := uc.Create(context.Background(), 0, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 2,
		Items: []usecase.TransferItemInput{{ProductID: 10, Quantity: 1}},
	})
	assertErrContains(t, err, "unauthorized")
}

func TestTransferUsecase_Create_SameWarehouse(t *testing.T) {
	uc := newTransferUsecase(newFixture())

	_, err := uc.Create(context.Background(), 1, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 1,
		Items: []usecase.TransferItemInput{{ProductID: 10, Quantity: 1}},
	})
	assert.True(t, errors.Is(err, usecase.ErrSameWarehouse))
}

func TestTransferUsecase_Create_EmptyItems(t *testing.T) {
	uc := newTransferUsecase(newFixture())

	_, err := uc.Create(context.Background(), 1, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 2,
	})
	assertErrContains(t, err, "items required")
}

func TestTransferUsecase_Create_InvalidQuantity(t *testing.T) {
	uc := newTransferUsecase(newFixture())

	_, err := uc.Create(context.Background(), 1, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 2,
		Items: []usecase.TransferItemInput{{ProductID: 10, Quantity: 0}},
	})
	assertErrContains(t, err, "quantity must be >= 1")
}

func TestTransferUsecase_Create_WarehouseNotFound(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(model.Warehouse{}, repo.ErrNotFound)

	_, err := uc.Create(context.Background(), 1, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 2,
		Items: []usecase.TransferItemInput{{ProductID: 10, Quantity: 5}},
	})
	assert.True(t, errors.Is(err, usecase.ErrWarehouseNotFound))
}

func TestTransferUsecase_Create_UnknownProduct(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(activeWarehouse(1, "W1"), nil)
	f.warehouse.On("FindByID", mock.Anything, int64(2)).Return(activeWarehouse(2, "W2"), nil)
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.Create(context.Background(), 7, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 2,
		Items: []usecase.TransferItemInput{{ProductID: 10, Quantity: 5}},
	})
	assert.True(t, errors.Is(err, usecase.ErrProductNotTracked))

	f.inventory.AssertNotCalled(t, "ReserveIfAvailable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// W1に100個（予約0）、30個の移動依頼 → 予約30が入る
func TestTransferUsecase_Create_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(activeWarehouse(1, "W1"), nil)
	f.warehouse.On("FindByID", mock.Anything, int64(2)).Return(activeWarehouse(2, "W2"), nil)
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, IsActive: true}, nil)
	f.inventory.On("EnsureRecord", mock.Anything, int64(1), int64(10)).Return(nil)
	f.inventory.On("ReserveIfAvailable", mock.Anything, int64(1), int64(10), int64(30)).Return(true, nil)
	f.transfer.On("Create", mock.Anything, mock.MatchedBy(func(tr model.StockTransfer) bool {
		return tr.FromWarehouseID == 1 &&
			tr.ToWarehouseID == 2 &&
			tr.Status == model.TransferStatusPending &&
			tr.RequestedBy == 7 &&
			tr.RequestedDate.Equal(testNow) &&
			tr.Reference == "ref-1"
	})).Return(int64(100), nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.MatchedBy(func(items []model.TransferItem) bool {
		return len(items) == 1 && items[0].ProductID == 10 && items[0].Quantity == 30
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.Create(ctx, 7, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 2,
		Items: []usecase.TransferItemInput{{ProductID: 10, Quantity: 30}},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(100), out.ID)
	assert.Equal(t, string(model.TransferStatusPending), out.Status)
	assert.Equal(t, "W1", out.FromWarehouseCode)
	assert.Equal(t, "W2", out.ToWarehouseCode)
	assert.Equal(t, int64(7), out.RequestedBy)
	assert.Len(t, out.Items, 1)

	f.inventory.AssertExpectations(t)
	f.transfer.AssertExpectations(t)
	f.items.AssertExpectations(t)
}

// 引当可能70のところに80を依頼 → InsufficientStock、依頼は作られない
func TestTransferUsecase_Create_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(activeWarehouse(1, "W1"), nil)
	f.warehouse.On("FindByID", mock.Anything, int64(2)).Return(activeWarehouse(2, "W2"), nil)
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, IsActive: true}, nil)
	f.inventory.On("EnsureRecord", mock.Anything, int64(1), int64(10)).Return(nil)
	f.inventory.On("ReserveIfAvailable", mock.Anything, int64(1), int64(10), int64(80)).Return(false, nil)

	_, err := uc.Create(ctx, 7, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 2,
		Items: []usecase.TransferItemInput{{ProductID: 10, Quantity: 80}},
	})
	assert.True(t, errors.Is(err, usecase.ErrInsufficientStock))
	assertErrContains(t, err, "product 10")

	f.transfer.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 複数明細は全部予約できるときだけ通る（2件目で失敗 → 依頼なし）
func TestTransferUsecase_Create_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(activeWarehouse(1, "W1"), nil)
	f.warehouse.On("FindByID", mock.Anything, int64(2)).Return(activeWarehouse(2, "W2"), nil)
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, IsActive: true}, nil)
	f.products.On("FindByID", mock.Anything, int64(11)).Return(model.Product{ID: 11, IsActive: true}, nil)
	f.inventory.On("EnsureRecord", mock.Anything, int64(1), mock.Anything).Return(nil)
	f.inventory.On("ReserveIfAvailable", mock.Anything, int64(1), int64(10), int64(5)).Return(true, nil)
	f.inventory.On("ReserveIfAvailable", mock.Anything, int64(1), int64(11), int64(5)).Return(false, nil)

	_, err := uc.Create(ctx, 7, usecase.CreateTransferInput{
		FromWarehouseID: 1, ToWarehouseID: 2,
		Items: []usecase.TransferItemInput{
			{ProductID: 10, Quantity: 5},
			{ProductID: 11, Quantity: 5},
		},
	})
	assert.True(t, errors.Is(err, usecase.ErrInsufficientStock))
	assertErrContains(t, err, "product 11")

	f.transfer.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// =====================
// Approve
// =====================

func TestTransferUsecase_Approve_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, FromWarehouseID: 1, ToWarehouseID: 2,
		Status: model.TransferStatusPending,
	}, nil)
	f.transfer.On("MarkInTransit", mock.Anything, int64(100), int64(7), testNow).Return(true, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.items.On("ListByTransferID", mock.Anything, int64(100)).Return([]model.TransferItem{
		{TransferID: 100, ProductID: 10, Quantity: 30},
	}, nil)
	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(activeWarehouse(1, "W1"), nil)
	f.warehouse.On("FindByID", mock.Anything, int64(2)).Return(activeWarehouse(2, "W2"), nil)

	out, err := uc.Approve(ctx, 7, 100)
	assert.NoError(t, err)
	assert.Equal(t, string(model.TransferStatusInTransit), out.Status)
	assert.NotNil(t, out.ApprovedBy)
	assert.Equal(t, int64(7), *out.ApprovedBy)
	assert.NotNil(t, out.ApprovedDate)

	f.transfer.AssertExpectations(t)
}

func TestTransferUsecase_Approve_InvalidTransition(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, Status: model.TransferStatusInTransit,
	}, nil)

	_, err := uc.Approve(context.Background(), 7, 100)
	assert.True(t, errors.Is(err, usecase.ErrInvalidTransition))

	f.transfer.AssertNotCalled(t, "MarkInTransit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// Complete
// =====================

// 承認済み30個を完了 → W1から30出庫、W2に30入庫（総量は不変）
func TestTransferUsecase_Complete_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, FromWarehouseID: 1, ToWarehouseID: 2,
		Status: model.TransferStatusInTransit,
	}, nil)
	f.items.On("ListByTransferID", mock.Anything, int64(100)).Return([]model.TransferItem{
		{TransferID: 100, ProductID: 10, Quantity: 30},
	}, nil)
	f.inventory.On("DebitReserved", mock.Anything, int64(1), int64(10), int64(30)).Return(true, nil)
	f.inventory.On("EnsureRecord", mock.Anything, int64(2), int64(10)).Return(nil)
	f.inventory.On("AddQuantity", mock.Anything, int64(2), int64(10), int64(30)).Return(nil)
	f.transfer.On("MarkCompleted", mock.Anything, int64(100), int64(7), testNow).Return(true, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(activeWarehouse(1, "W1"), nil)
	f.warehouse.On("FindByID", mock.Anything, int64(2)).Return(activeWarehouse(2, "W2"), nil)

	out, err := uc.Complete(ctx, 7, 100)
	assert.NoError(t, err)
	assert.Equal(t, string(model.TransferStatusCompleted), out.Status)
	assert.NotNil(t, out.CompletedBy)
	assert.Equal(t, int64(7), *out.CompletedBy)

	//出庫と入庫が同量であること
	f.inventory.AssertCalled(t, "DebitReserved", mock.Anything, int64(1), int64(10), int64(30))
	f.inventory.AssertCalled(t, "AddQuantity", mock.Anything, int64(2), int64(10), int64(30))
	f.transfer.AssertExpectations(t)
}

// 承認をとばして完了しようとする → InvalidTransition、在庫は動かない
func TestTransferUsecase_Complete_PendingRejected(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, FromWarehouseID: 1, ToWarehouseID: 2,
		Status: model.TransferStatusPending,
	}, nil)

	_, err := uc.Complete(context.Background(), 7, 100)
	assert.True(t, errors.Is(err, usecase.ErrInvalidTransition))

	f.inventory.AssertNotCalled(t, "DebitReserved", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.inventory.AssertNotCalled(t, "AddQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// Cancel
// =====================

// PENDINGをキャンセル → 予約が戻る、物理在庫は動かない
func TestTransferUsecase_Cancel_Pending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, FromWarehouseID: 1, ToWarehouseID: 2,
		Status: model.TransferStatusPending,
	}, nil)
	f.items.On("ListByTransferID", mock.Anything, int64(100)).Return([]model.TransferItem{
		{TransferID: 100, ProductID: 10, Quantity: 30},
	}, nil)
	f.inventory.On("Release", mock.Anything, int64(1), int64(10), int64(30)).Return(true, nil)
	f.transfer.On("MarkCancelled", mock.Anything, int64(100), model.TransferStatusPending).Return(true, nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(activeWarehouse(1, "W1"), nil)
	f.warehouse.On("FindByID", mock.Anything, int64(2)).Return(activeWarehouse(2, "W2"), nil)

	out, err := uc.Cancel(ctx, 7, 100)
	assert.NoError(t, err)
	assert.Equal(t, string(model.TransferStatusCancelled), out.Status)

	f.inventory.AssertNotCalled(t, "AddQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.inventory.AssertNotCalled(t, "DebitReserved", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.inventory.AssertExpectations(t)
}

// 2回目のキャンセルはInvalidTransitionで、予約解放は走らない
func TestTransferUsecase_Cancel_AlreadyCancelled(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, FromWarehouseID: 1, ToWarehouseID: 2,
		Status: model.TransferStatusCancelled,
	}, nil)

	_, err := uc.Cancel(context.Background(), 7, 100)
	assert.True(t, errors.Is(err, usecase.ErrInvalidTransition))

	f.inventory.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferUsecase_Cancel_Completed(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, Status: model.TransferStatusCompleted,
	}, nil)

	_, err := uc.Cancel(context.Background(), 7, 100)
	assert.True(t, errors.Is(err, usecase.ErrInvalidTransition))
}

// =====================
// Delete
// =====================

// PENDINGの削除は予約を解放してから消す
func TestTransferUsecase_Delete_Pending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, FromWarehouseID: 1, ToWarehouseID: 2,
		Status: model.TransferStatusPending,
	}, nil)
	f.items.On("ListByTransferID", mock.Anything, int64(100)).Return([]model.TransferItem{
		{TransferID: 100, ProductID: 10, Quantity: 30},
	}, nil)
	f.inventory.On("Release", mock.Anything, int64(1), int64(10), int64(30)).Return(true, nil)
	f.transfer.On("DeleteIf", mock.Anything, int64(100), model.TransferStatusPending).Return(true, nil)
	f.items.On("DeleteByTransferID", mock.Anything, int64(100)).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := uc.Delete(ctx, 7, 100)
	assert.NoError(t, err)

	f.inventory.AssertExpectations(t)
	f.transfer.AssertExpectations(t)
}

// CANCELLEDの削除は予約解放なし（キャンセル時に解放済み）
func TestTransferUsecase_Delete_Cancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, FromWarehouseID: 1, ToWarehouseID: 2,
		Status: model.TransferStatusCancelled,
	}, nil)
	f.transfer.On("DeleteIf", mock.Anything, int64(100), model.TransferStatusCancelled).Return(true, nil)
	f.items.On("DeleteByTransferID", mock.Anything, int64(100)).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := uc.Delete(ctx, 7, 100)
	assert.NoError(t, err)

	f.inventory.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferUsecase_Delete_CompletedForbidden(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, Status: model.TransferStatusCompleted,
	}, nil)

	err := uc.Delete(context.Background(), 7, 100)
	assert.True(t, errors.Is(err, usecase.ErrInvalidStateForDeletion))

	f.transfer.AssertNotCalled(t, "DeleteIf", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferUsecase_Delete_InTransitForbidden(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(100)).Return(model.StockTransfer{
		ID: 100, Status: model.TransferStatusInTransit,
	}, nil)

	err := uc.Delete(context.Background(), 7, 100)
	assert.True(t, errors.Is(err, usecase.ErrInvalidStateForDeletion))
}

// =====================
// Get / List
// =====================

func TestTransferUsecase_Get_NotFound(t *testing.T) {
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("FindByID", mock.Anything, int64(99)).Return(model.StockTransfer{}, repo.ErrNotFound)

	_, err := uc.Get(context.Background(), 99)
	assertErrContains(t, err, "not found")
}

func TestTransferUsecase_List_InvalidStatus(t *testing.T) {
	uc := newTransferUsecase(newFixture())

	_, err := uc.List(context.Background(), usecase.ListTransfersInput{Page: 1, Limit: 20, Status: "SHIPPED"})
	assertErrContains(t, err, "invalid status")
}

func TestTransferUsecase_List_InvalidDateRange(t *testing.T) {
	uc := newTransferUsecase(newFixture())

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -7)
	_, err := uc.List(context.Background(), usecase.ListTransfersInput{
		Page: 1, Limit: 20, From: &from, To: &to,
	})
	assertErrContains(t, err, "invalid date range")
}

func TestTransferUsecase_List_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newTransferUsecase(f)

	f.transfer.On("List", mock.Anything, repo.TransferListFilter{
		Page: 1, Limit: 20, Status: string(model.TransferStatusPending),
	}).Return([]model.StockTransfer{
		{ID: 100, FromWarehouseID: 1, ToWarehouseID: 2, Status: model.TransferStatusPending},
	}, int64(1), nil)
	f.items.On("ListByTransferID", mock.Anything, int64(100)).Return([]model.TransferItem{
		{TransferID: 100, ProductID: 10, Quantity: 30},
	}, nil)
	f.warehouse.On("FindByID", mock.Anything, int64(1)).Return(activeWarehouse(1, "W1"), nil)
	f.warehouse.On("FindByID", mock.Anything, int64(2)).Return(activeWarehouse(2, "W2"), nil)

	out, err := uc.List(ctx, usecase.ListTransfersInput{
		Page: 1, Limit: 20, Status: string(model.TransferStatusPending),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, "W1", out.Items[0].FromWarehouseCode)
}
