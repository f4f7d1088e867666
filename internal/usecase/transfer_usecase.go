package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wms/internal/domain/model"
	repo "wms/internal/repository"
)

// 参照番号の採番（main側でuuidを渡す）
type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

type TransferUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	idGen     IDGenerator
	clock     Clock
}

func NewTransferUsecase(
	tx repo.TransactionManager,
	auditRepo repo.AuditLogRepository,
	idGen IDGenerator,
	clock Clock,
) *TransferUsecase {
	return &TransferUsecase{
		tx:        tx,
		auditRepo: auditRepo,
		idGen:     idGen,
		clock:     clock,
	}
}

type TransferItemInput struct {
	ProductID int64
	Quantity  int64
	Notes     string
}

type CreateTransferInput struct {
	FromWarehouseID int64
	ToWarehouseID   int64
	Note            string
	Items           []TransferItemInput
}

type TransferItemOutput struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

type TransferOutput struct {
	ID                int64                `json:"id"`
	Reference         string               `json:"reference"`
	Status            string               `json:"status"`
	FromWarehouseID   int64                `json:"from_warehouse_id"`
	FromWarehouseCode string               `json:"from_warehouse_code,omitempty"`
	FromWarehouseName string               `json:"from_warehouse_name,omitempty"`
	ToWarehouseID     int64                `json:"to_warehouse_id"`
	ToWarehouseCode   string               `json:"to_warehouse_code,omitempty"`
	ToWarehouseName   string               `json:"to_warehouse_name,omitempty"`
	Note              string               `json:"note,omitempty"`
	RequestedBy       int64                `json:"requested_by"`
	ApprovedBy        *int64               `json:"approved_by,omitempty"`
	CompletedBy       *int64               `json:"completed_by,omitempty"`
	RequestedDate     time.Time            `json:"requested_date"`
	ApprovedDate      *time.Time           `json:"approved_date,omitempty"`
	CompletedDate     *time.Time           `json:"completed_date,omitempty"`
	Items             []TransferItemOutput `json:"items"`
}

type TransferListOutput struct {
	Items []TransferOutput `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// 移動依頼の作成。作成と同時に移動元の在庫を全明細ぶん予約する。
// どれか1つでも足りなければ全体が失敗する（部分予約は残らない）。
func (u *TransferUsecase) Create(ctx context.Context, actorID int64, in CreateTransferInput) (TransferOutput, error) {
	if actorID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.FromWarehouseID <= 0 || in.ToWarehouseID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "invalid warehouse id")
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return TransferOutput{}, NewDomainError(http.StatusBadRequest, "from and to warehouse must differ", ErrSameWarehouse)
	}
	if len(in.Items) == 0 {
		return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		if it.Quantity < 1 {
			return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
		}
		if len(it.Notes) > 255 {
			return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "notes too long")
		}
	}

	var out TransferOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		from, err := findActiveWarehouse(ctx, r, in.FromWarehouseID)
		if err != nil {
			return err
		}
		to, err := findActiveWarehouse(ctx, r, in.ToWarehouseID)
		if err != nil {
			return err
		}

		//明細ごとに予約。1件でも失敗すればtxごと巻き戻る
		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound || (err == nil && !p.IsActive) {
				return NewDomainError(http.StatusBadRequest,
					fmt.Sprintf("invalid product %d", it.ProductID), ErrProductNotTracked)
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if err := r.Inventory().EnsureRecord(ctx, from.ID, it.ProductID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			ok, err := r.Inventory().ReserveIfAvailable(ctx, from.ID, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewDomainError(http.StatusConflict,
					fmt.Sprintf("insufficient stock for product %d", it.ProductID), ErrInsufficientStock)
			}
		}

		now := u.clock.Now()
		t := model.StockTransfer{
			Reference:       u.idGen.NewID(),
			FromWarehouseID: from.ID,
			ToWarehouseID:   to.ID,
			Status:          model.TransferStatusPending,
			Note:            in.Note,
			RequestedBy:     actorID,
			RequestedDate:   now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		transferID, err := r.Transfers().Create(ctx, t)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		t.ID = transferID

		items := make([]model.TransferItem, 0, len(in.Items))
		for _, it := range in.Items {
			items = append(items, model.TransferItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Notes:     it.Notes,
				CreatedAt: now,
			})
		}
		if err := r.TransferItems().CreateBulk(ctx, transferID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionCreateTransfer,
			ResourceType: model.AuditResourceTransfer,
			ResourceID:   transferID,
			AfterJSON:    statusJSON(model.TransferStatusPending),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for i := range items {
			items[i].TransferID = transferID
		}
		out = toTransferOutput(t, items, from, to)
		return nil
	})

	if err != nil {
		return TransferOutput{}, err
	}
	return out, nil
}

// 承認: PENDING → IN_TRANSIT。在庫はまだ動かない（予約は移動元に残る）。
func (u *TransferUsecase) Approve(ctx context.Context, actorID int64, transferID int64) (TransferOutput, error) {
	if actorID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if transferID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out TransferOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Transfers().FindByID(ctx, transferID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if t.Status != model.TransferStatusPending {
			return transitionError(t.Status, "approve")
		}

		now := u.clock.Now()
		ok, err := r.Transfers().MarkInTransit(ctx, transferID, actorID, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			//読み取り後に他の書き込みが先行した
			return transitionError(t.Status, "approve")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionApproveTransfer,
			ResourceType: model.AuditResourceTransfer,
			ResourceID:   transferID,
			BeforeJSON:   statusJSON(t.Status),
			AfterJSON:    statusJSON(model.TransferStatusInTransit),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		t.Status = model.TransferStatusInTransit
		t.ApprovedBy = &actorID
		t.ApprovedDate = &now
		return buildOutput(ctx, r, t, &out)
	})

	if err != nil {
		return TransferOutput{}, err
	}
	return out, nil
}

// 完了: IN_TRANSIT → COMPLETED。
// 移動元は予約分を物理出庫し、移動先に同量を入庫する。全部同一txで行う。
func (u *TransferUsecase) Complete(ctx context.Context, actorID int64, transferID int64) (TransferOutput, error) {
	if actorID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if transferID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out TransferOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Transfers().FindByID(ctx, transferID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if t.Status != model.TransferStatusInTransit {
			return transitionError(t.Status, "complete")
		}

		items, err := r.TransferItems().ListByTransferID(ctx, transferID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			//予約は作成時に取ってあるので、ここで失敗するのは台帳が壊れている場合だけ
			ok, err := r.Inventory().DebitReserved(ctx, t.FromWarehouseID, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, fmt.Sprintf("stock state conflict for product %d", it.ProductID))
			}

			if err := r.Inventory().EnsureRecord(ctx, t.ToWarehouseID, it.ProductID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.Inventory().AddQuantity(ctx, t.ToWarehouseID, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		now := u.clock.Now()
		ok, err := r.Transfers().MarkCompleted(ctx, transferID, actorID, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return transitionError(t.Status, "complete")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionCompleteTransfer,
			ResourceType: model.AuditResourceTransfer,
			ResourceID:   transferID,
			BeforeJSON:   statusJSON(t.Status),
			AfterJSON:    statusJSON(model.TransferStatusCompleted),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		t.Status = model.TransferStatusCompleted
		t.CompletedBy = &actorID
		t.CompletedDate = &now
		return buildOutputWithItems(ctx, r, t, items, &out)
	})

	if err != nil {
		return TransferOutput{}, err
	}
	return out, nil
}

// キャンセル: PENDING / IN_TRANSIT → CANCELLED。移動元の予約を解放する。
func (u *TransferUsecase) Cancel(ctx context.Context, actorID int64, transferID int64) (TransferOutput, error) {
	if actorID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if transferID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out TransferOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Transfers().FindByID(ctx, transferID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if t.Status != model.TransferStatusPending && t.Status != model.TransferStatusInTransit {
			return transitionError(t.Status, "cancel")
		}

		items, err := r.TransferItems().ListByTransferID(ctx, transferID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			ok, err := r.Inventory().Release(ctx, t.FromWarehouseID, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, fmt.Sprintf("stock state conflict for product %d", it.ProductID))
			}
		}

		//ステータスCASが失敗＝他の書き込みが先行。予約解放ごと巻き戻す
		ok, err := r.Transfers().MarkCancelled(ctx, transferID, t.Status)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return transitionError(t.Status, "cancel")
		}

		now := u.clock.Now()
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionCancelTransfer,
			ResourceType: model.AuditResourceTransfer,
			ResourceID:   transferID,
			BeforeJSON:   statusJSON(t.Status),
			AfterJSON:    statusJSON(model.TransferStatusCancelled),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		t.Status = model.TransferStatusCancelled
		return buildOutputWithItems(ctx, r, t, items, &out)
	})

	if err != nil {
		return TransferOutput{}, err
	}
	return out, nil
}

// 削除はPENDING / CANCELLEDのみ。IN_TRANSIT・COMPLETEDは監査のため残す。
func (u *TransferUsecase) Delete(ctx context.Context, actorID int64, transferID int64) error {
	if actorID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if transferID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Transfers().FindByID(ctx, transferID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if t.Status != model.TransferStatusPending && t.Status != model.TransferStatusCancelled {
			return NewDomainError(http.StatusConflict,
				fmt.Sprintf("cannot delete transfer in status %s", t.Status), ErrInvalidStateForDeletion)
		}

		//PENDINGはまだ予約を握っているので先に解放する
		if t.Status == model.TransferStatusPending {
			items, err := r.TransferItems().ListByTransferID(ctx, transferID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			for _, it := range items {
				ok, err := r.Inventory().Release(ctx, t.FromWarehouseID, it.ProductID, it.Quantity)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				if !ok {
					return NewHTTPError(http.StatusConflict, fmt.Sprintf("stock state conflict for product %d", it.ProductID))
				}
			}
		}

		ok, err := r.Transfers().DeleteIf(ctx, transferID, t.Status)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return NewDomainError(http.StatusConflict,
				fmt.Sprintf("cannot delete transfer in status %s", t.Status), ErrInvalidStateForDeletion)
		}

		if err := r.TransferItems().DeleteByTransferID(ctx, transferID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionDeleteTransfer,
			ResourceType: model.AuditResourceTransfer,
			ResourceID:   transferID,
			BeforeJSON:   statusJSON(t.Status),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}

func (u *TransferUsecase) Get(ctx context.Context, transferID int64) (TransferOutput, error) {
	if transferID <= 0 {
		return TransferOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out TransferOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Transfers().FindByID(ctx, transferID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return buildOutput(ctx, r, t, &out)
	})

	if err != nil {
		return TransferOutput{}, err
	}
	return out, nil
}

type ListTransfersInput struct {
	Page        int
	Limit       int
	Status      string
	WarehouseID *int64
	From        *time.Time //requested_date >=
	To          *time.Time //requested_date <=
}

func (u *TransferUsecase) List(ctx context.Context, in ListTransfersInput) (TransferListOutput, error) {
	if in.Page < 1 {
		return TransferListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return TransferListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	switch in.Status {
	case "", string(model.TransferStatusPending), string(model.TransferStatusInTransit),
		string(model.TransferStatusCompleted), string(model.TransferStatusCancelled):
	default:
		return TransferListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return TransferListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid date range")
	}

	var out TransferListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		transfers, total, err := r.Transfers().List(ctx, repo.TransferListFilter{
			Page:        in.Page,
			Limit:       in.Limit,
			Status:      in.Status,
			WarehouseID: in.WarehouseID,
			From:        in.From,
			To:          in.To,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//同じ倉庫を何度も引かない
		cache := map[int64]model.Warehouse{}

		outs := make([]TransferOutput, 0, len(transfers))
		for _, t := range transfers {
			items, err := r.TransferItems().ListByTransferID(ctx, t.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			from, err := cachedWarehouse(ctx, r, cache, t.FromWarehouseID)
			if err != nil {
				return err
			}
			to, err := cachedWarehouse(ctx, r, cache, t.ToWarehouseID)
			if err != nil {
				return err
			}
			outs = append(outs, toTransferOutput(t, items, from, to))
		}

		out = TransferListOutput{
			Items: outs,
			Total: total,
			Page:  in.Page,
			Limit: in.Limit,
		}
		return nil
	})

	if err != nil {
		return TransferListOutput{}, err
	}
	return out, nil
}

// ---- helpers ----

func findActiveWarehouse(ctx context.Context, r repo.TxRepos, id int64) (model.Warehouse, error) {
	w, err := r.Warehouses().FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Warehouse{}, NewDomainError(http.StatusNotFound,
			fmt.Sprintf("warehouse %d not found", id), ErrWarehouseNotFound)
	}
	if err != nil {
		return model.Warehouse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !w.IsActive {
		return model.Warehouse{}, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("warehouse %d is not active", id))
	}
	return w, nil
}

func cachedWarehouse(ctx context.Context, r repo.TxRepos, cache map[int64]model.Warehouse, id int64) (model.Warehouse, error) {
	if w, ok := cache[id]; ok {
		return w, nil
	}
	w, err := r.Warehouses().FindByID(ctx, id)
	if err == repo.ErrNotFound {
		//削除済み倉庫でも一覧は返す（IDだけの表示になる）
		cache[id] = model.Warehouse{ID: id}
		return cache[id], nil
	}
	if err != nil {
		return model.Warehouse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	cache[id] = w
	return w, nil
}

func buildOutput(ctx context.Context, r repo.TxRepos, t model.StockTransfer, out *TransferOutput) error {
	items, err := r.TransferItems().ListByTransferID(ctx, t.ID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return buildOutputWithItems(ctx, r, t, items, out)
}

func buildOutputWithItems(ctx context.Context, r repo.TxRepos, t model.StockTransfer, items []model.TransferItem, out *TransferOutput) error {
	cache := map[int64]model.Warehouse{}
	from, err := cachedWarehouse(ctx, r, cache, t.FromWarehouseID)
	if err != nil {
		return err
	}
	to, err := cachedWarehouse(ctx, r, cache, t.ToWarehouseID)
	if err != nil {
		return err
	}
	*out = toTransferOutput(t, items, from, to)
	return nil
}

func toTransferOutput(t model.StockTransfer, items []model.TransferItem, from model.Warehouse, to model.Warehouse) TransferOutput {
	outItems := make([]TransferItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, TransferItemOutput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Notes:     it.Notes,
		})
	}

	return TransferOutput{
		ID:                t.ID,
		Reference:         t.Reference,
		Status:            string(t.Status),
		FromWarehouseID:   t.FromWarehouseID,
		FromWarehouseCode: from.Code,
		FromWarehouseName: from.Name,
		ToWarehouseID:     t.ToWarehouseID,
		ToWarehouseCode:   to.Code,
		ToWarehouseName:   to.Name,
		Note:              t.Note,
		RequestedBy:       t.RequestedBy,
		ApprovedBy:        t.ApprovedBy,
		CompletedBy:       t.CompletedBy,
		RequestedDate:     t.RequestedDate,
		ApprovedDate:      t.ApprovedDate,
		CompletedDate:     t.CompletedDate,
		Items:             outItems,
	}
}

func transitionError(from model.TransferStatus, op string) error {
	return NewDomainError(http.StatusConflict,
		fmt.Sprintf("cannot %s transfer in status %s", op, from), ErrInvalidTransition)
}

func statusJSON(s model.TransferStatus) string {
	return fmt.Sprintf(`{"status":%q}`, string(s))
}
