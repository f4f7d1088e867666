package server

import (
	"wms/internal/config"
	"wms/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(
	e *echo.Echo,
	cfg config.Config,
	transferH *handler.TransferHandler,
	inventoryH *handler.InventoryHandler,
	warehouseH *handler.WarehouseHandler,
) {
	transferH.RegisterRoutes(e, cfg)
	inventoryH.RegisterRoutes(e, cfg)
	warehouseH.RegisterRoutes(e, cfg)
}
