package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"wms/internal/domain/model"
	repo "wms/internal/repository"
)

type InventoryUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	clock     Clock
}

func NewInventoryUsecase(
	tx repo.TransactionManager,
	auditRepo repo.AuditLogRepository,
	clock Clock,
) *InventoryUsecase {
	return &InventoryUsecase{
		tx:        tx,
		auditRepo: auditRepo,
		clock:     clock,
	}
}

type StockOutput struct {
	WarehouseID int64 `json:"warehouse_id"`
	ProductID   int64 `json:"product_id"`
	Quantity    int64 `json:"quantity"`
	Reserved    int64 `json:"reserved"`
	Available   int64 `json:"available"`
}

type StockListOutput struct {
	Items []StockOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 引当可能数の取得。台帳行が無い商品は0を返す（エラーにしない）。
func (u *InventoryUsecase) GetAvailableStock(ctx context.Context, warehouseID int64, productID int64) (StockOutput, error) {
	if warehouseID <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid warehouse id")
	}
	if productID <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var out StockOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := findActiveWarehouse(ctx, r, warehouseID); err != nil {
			return err
		}

		rec, err := r.Inventory().FindRecord(ctx, warehouseID, productID)
		if err == repo.ErrNotFound {
			//未登録商品は在庫0扱い
			out = StockOutput{WarehouseID: warehouseID, ProductID: productID}
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toStockOutput(rec)
		return nil
	})

	if err != nil {
		return StockOutput{}, err
	}
	return out, nil
}

func (u *InventoryUsecase) ListWarehouseStock(ctx context.Context, warehouseID int64, page int, limit int) (StockListOutput, error) {
	if warehouseID <= 0 {
		return StockListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid warehouse id")
	}
	if page < 1 {
		return StockListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return StockListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var out StockListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := findActiveWarehouse(ctx, r, warehouseID); err != nil {
			return err
		}

		recs, total, err := r.Inventory().ListByWarehouse(ctx, warehouseID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items := make([]StockOutput, 0, len(recs))
		for _, rec := range recs {
			items = append(items, toStockOutput(rec))
		}

		out = StockListOutput{Items: items, Total: total, Page: page, Limit: limit}
		return nil
	})

	if err != nil {
		return StockListOutput{}, err
	}
	return out, nil
}

type AdjustStockInput struct {
	WarehouseID int64
	ProductID   int64
	Operation   string // ADD / SUBTRACT / SET
	Quantity    int64
	Reason      string
}

// 在庫数の直接操作（入荷・破損・棚卸）。
// SUBTRACT / SET は予約分を下回る値にはできない。
func (u *InventoryUsecase) AdjustStock(ctx context.Context, actorID int64, in AdjustStockInput) (StockOutput, error) {
	if actorID <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.WarehouseID <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid warehouse id")
	}
	if in.ProductID <= 0 {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}

	op := model.AdjustOperation(strings.ToUpper(strings.TrimSpace(in.Operation)))
	switch op {
	case model.AdjustOperationAdd, model.AdjustOperationSubtract:
		if in.Quantity < 1 {
			return StockOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
		}
	case model.AdjustOperationSet:
		if in.Quantity < 0 {
			return StockOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 0")
		}
	default:
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid operation")
	}

	var out StockOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := findActiveWarehouse(ctx, r, in.WarehouseID); err != nil {
			return err
		}

		p, err := r.Products().FindByID(ctx, in.ProductID)
		if err == repo.ErrNotFound || (err == nil && !p.IsActive) {
			return NewDomainError(http.StatusBadRequest,
				fmt.Sprintf("invalid product %d", in.ProductID), ErrProductNotTracked)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//台帳行を先に確実に作る（「行が無い＝0」の扱いを一本化する）
		if err := r.Inventory().EnsureRecord(ctx, in.WarehouseID, in.ProductID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		before, err := r.Inventory().FindRecord(ctx, in.WarehouseID, in.ProductID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		switch op {
		case model.AdjustOperationAdd:
			if err := r.Inventory().AddQuantity(ctx, in.WarehouseID, in.ProductID, in.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		case model.AdjustOperationSubtract:
			ok, err := r.Inventory().SubtractQuantity(ctx, in.WarehouseID, in.ProductID, in.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewDomainError(http.StatusConflict,
					fmt.Sprintf("subtract would drop quantity below reserved (%d)", before.Reserved),
					ErrWouldViolateReservation)
			}
		case model.AdjustOperationSet:
			ok, err := r.Inventory().SetQuantity(ctx, in.WarehouseID, in.ProductID, in.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewDomainError(http.StatusConflict,
					fmt.Sprintf("set would drop quantity below reserved (%d)", before.Reserved),
					ErrWouldViolateReservation)
			}
		}

		after, err := r.Inventory().FindRecord(ctx, in.WarehouseID, in.ProductID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()

		//調整履歴（差分）
		if err := r.Inventory().CreateAdjustment(ctx, model.StockAdjustment{
			WarehouseID:    in.WarehouseID,
			ProductID:      in.ProductID,
			AdminUserID:    actorID,
			Operation:      op,
			Amount:         in.Quantity,
			QuantityBefore: before.Quantity,
			QuantityAfter:  after.Quantity,
			Reason:         strings.TrimSpace(in.Reason),
			CreatedAt:      now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログ（在庫更新）
		beforeJSON := fmt.Sprintf(`{"quantity":%d}`, before.Quantity)
		afterJSON := fmt.Sprintf(`{"quantity":%d}`, after.Quantity)
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionAdjustStock,
			ResourceType: model.AuditResourceInventory,
			ResourceID:   after.ID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toStockOutput(after)
		return nil
	})

	if err != nil {
		return StockOutput{}, err
	}
	return out, nil
}

type BulkAdjustResult struct {
	Index int          `json:"index"`
	OK    bool         `json:"ok"`
	Error string       `json:"error,omitempty"`
	Stock *StockOutput `json:"stock,omitempty"`
}

// 複数の調整をまとめて適用する。1件ずつ独立に成功/失敗を返す。
func (u *InventoryUsecase) BulkAdjust(ctx context.Context, actorID int64, ins []AdjustStockInput) ([]BulkAdjustResult, error) {
	if actorID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(ins) == 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "adjustments required")
	}
	if len(ins) > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "too many adjustments")
	}

	results := make([]BulkAdjustResult, 0, len(ins))
	for i, in := range ins {
		stock, err := u.AdjustStock(ctx, actorID, in)
		if err != nil {
			msg := "internal error"
			if he, ok := AsHTTPError(err); ok {
				msg = he.Message
			}
			results = append(results, BulkAdjustResult{Index: i, OK: false, Error: msg})
			continue
		}
		s := stock
		results = append(results, BulkAdjustResult{Index: i, OK: true, Stock: &s})
	}
	return results, nil
}

func toStockOutput(rec model.InventoryRecord) StockOutput {
	return StockOutput{
		WarehouseID: rec.WarehouseID,
		ProductID:   rec.ProductID,
		Quantity:    rec.Quantity,
		Reserved:    rec.Reserved,
		Available:   rec.Available(),
	}
}
