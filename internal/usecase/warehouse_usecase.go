package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"wms/internal/domain/model"
	repo "wms/internal/repository"
)

type WarehouseUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	clock     Clock
}

func NewWarehouseUsecase(
	tx repo.TransactionManager,
	auditRepo repo.AuditLogRepository,
	clock Clock,
) *WarehouseUsecase {
	return &WarehouseUsecase{
		tx:        tx,
		auditRepo: auditRepo,
		clock:     clock,
	}
}

type WarehouseInput struct {
	Code     string
	Name     string
	Address  string
	IsActive bool
}

type WarehouseListOutput struct {
	Items []model.Warehouse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (u *WarehouseUsecase) List(ctx context.Context, page int, limit int) (WarehouseListOutput, error) {
	if page < 1 {
		return WarehouseListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return WarehouseListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var out WarehouseListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, total, err := r.Warehouses().List(ctx, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = WarehouseListOutput{Items: items, Total: total, Page: page, Limit: limit}
		return nil
	})

	if err != nil {
		return WarehouseListOutput{}, err
	}
	return out, nil
}

func (u *WarehouseUsecase) Get(ctx context.Context, warehouseID int64) (model.Warehouse, error) {
	if warehouseID <= 0 {
		return model.Warehouse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out model.Warehouse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		w, err := r.Warehouses().FindByID(ctx, warehouseID)
		if err == repo.ErrNotFound {
			return NewDomainError(http.StatusNotFound,
				fmt.Sprintf("warehouse %d not found", warehouseID), ErrWarehouseNotFound)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = w
		return nil
	})

	if err != nil {
		return model.Warehouse{}, err
	}
	return out, nil
}

func (u *WarehouseUsecase) Create(ctx context.Context, actorID int64, in WarehouseInput) (model.Warehouse, error) {
	if actorID <= 0 {
		return model.Warehouse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	code := strings.TrimSpace(in.Code)
	if code == "" || len(code) > 50 {
		return model.Warehouse{}, NewHTTPError(http.StatusBadRequest, "invalid code")
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Warehouse{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	var out model.Warehouse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//コード重複チェック
		if _, err := r.Warehouses().FindByCode(ctx, code); err == nil {
			return NewHTTPError(http.StatusConflict, "code already exists")
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()
		w, err := r.Warehouses().Create(ctx, model.Warehouse{
			Code:      code,
			Name:      strings.TrimSpace(in.Name),
			Address:   in.Address,
			IsActive:  in.IsActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionCreateWarehouse,
			ResourceType: model.AuditResourceWarehouse,
			ResourceID:   w.ID,
			AfterJSON:    fmt.Sprintf(`{"code":%q}`, w.Code),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = w
		return nil
	})

	if err != nil {
		return model.Warehouse{}, err
	}
	return out, nil
}

func (u *WarehouseUsecase) Update(ctx context.Context, actorID int64, warehouseID int64, in WarehouseInput) error {
	if actorID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if warehouseID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	code := strings.TrimSpace(in.Code)
	if code == "" || len(code) > 50 {
		return NewHTTPError(http.StatusBadRequest, "invalid code")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		w, err := r.Warehouses().FindByID(ctx, warehouseID)
		if err == repo.ErrNotFound {
			return NewDomainError(http.StatusNotFound,
				fmt.Sprintf("warehouse %d not found", warehouseID), ErrWarehouseNotFound)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//別の倉庫が同じコードを使っていないか
		if other, err := r.Warehouses().FindByCode(ctx, code); err == nil && other.ID != warehouseID {
			return NewHTTPError(http.StatusConflict, "code already exists")
		} else if err != nil && err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()
		if err := r.Warehouses().Update(ctx, model.Warehouse{
			ID:        warehouseID,
			Code:      code,
			Name:      strings.TrimSpace(in.Name),
			Address:   in.Address,
			IsActive:  in.IsActive,
			UpdatedAt: now,
		}); err != nil {
			if err == repo.ErrNotFound {
				return NewDomainError(http.StatusNotFound,
					fmt.Sprintf("warehouse %d not found", warehouseID), ErrWarehouseNotFound)
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionUpdateWarehouse,
			ResourceType: model.AuditResourceWarehouse,
			ResourceID:   warehouseID,
			BeforeJSON:   fmt.Sprintf(`{"code":%q,"is_active":%t}`, w.Code, w.IsActive),
			AfterJSON:    fmt.Sprintf(`{"code":%q,"is_active":%t}`, code, in.IsActive),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}

// 未終了の移動依頼が参照している倉庫は消せない。
func (u *WarehouseUsecase) Delete(ctx context.Context, actorID int64, warehouseID int64) error {
	if actorID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if warehouseID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		w, err := r.Warehouses().FindByID(ctx, warehouseID)
		if err == repo.ErrNotFound {
			return NewDomainError(http.StatusNotFound,
				fmt.Sprintf("warehouse %d not found", warehouseID), ErrWarehouseNotFound)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		open, err := r.Transfers().CountOpenByWarehouse(ctx, warehouseID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if open > 0 {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("warehouse has %d open transfers", open))
		}

		if err := r.Warehouses().SoftDelete(ctx, warehouseID); err != nil {
			if err == repo.ErrNotFound {
				return NewDomainError(http.StatusNotFound,
					fmt.Sprintf("warehouse %d not found", warehouseID), ErrWarehouseNotFound)
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionDeleteWarehouse,
			ResourceType: model.AuditResourceWarehouse,
			ResourceID:   warehouseID,
			BeforeJSON:   fmt.Sprintf(`{"code":%q}`, w.Code),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}
