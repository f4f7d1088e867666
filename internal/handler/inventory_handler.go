package handler

import (
	"net/http"
	"strconv"

	"wms/internal/config"
	"wms/internal/middleware"
	"wms/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AdjustStockRequest は在庫調整の入力です。
type AdjustStockRequest struct {
	WarehouseID int64  `json:"warehouse_id"`
	ProductID   int64  `json:"product_id"`
	Operation   string `json:"operation"` // ADD / SUBTRACT / SET
	Quantity    int64  `json:"quantity"`
	Reason      string `json:"reason"`
}

type BulkAdjustRequest struct {
	Adjustments []AdjustStockRequest `json:"adjustments"`
}

// /admin/warehouses/:id/stock と /admin/inventory をまとめる
type InventoryHandler struct {
	uc *usecase.InventoryUsecase
}

// DI
func NewInventoryHandler(uc *usecase.InventoryUsecase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

func (h *InventoryHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")

	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/warehouses/:id/stock", h.listStock)
	admin.GET("/warehouses/:id/stock/:product_id", h.getStock)
	admin.PUT("/warehouses/:id/stock/:product_id", h.adjustStock)
	admin.POST("/inventory/bulk-adjust", h.bulkAdjust)
}

func (h *InventoryHandler) getStock(c echo.Context) error {
	warehouseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid warehouse id"})
	}
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	out, err := h.uc.GetAvailableStock(c.Request().Context(), warehouseID, productID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) listStock(c echo.Context) error {
	warehouseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid warehouse id"})
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	out, err := h.uc.ListWarehouseStock(c.Request().Context(), warehouseID, page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) adjustStock(c echo.Context) error {
	warehouseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid warehouse id"})
	}
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	var req AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AdjustStock(c.Request().Context(), actorID, usecase.AdjustStockInput{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Operation:   req.Operation,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) bulkAdjust(c echo.Context) error {
	var req BulkAdjustRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	ins := make([]usecase.AdjustStockInput, 0, len(req.Adjustments))
	for _, a := range req.Adjustments {
		ins = append(ins, usecase.AdjustStockInput{
			WarehouseID: a.WarehouseID,
			ProductID:   a.ProductID,
			Operation:   a.Operation,
			Quantity:    a.Quantity,
			Reason:      a.Reason,
		})
	}

	results, err := h.uc.BulkAdjust(c.Request().Context(), actorID, ins)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}
