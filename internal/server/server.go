package server

import (
	"wms/internal/config"
	"wms/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func Start(
	addr string,
	cfg config.Config,
	transferH *handler.TransferHandler,
	inventoryH *handler.InventoryHandler,
	warehouseH *handler.WarehouseHandler,
) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	RegisterRoutes(e, cfg, transferH, inventoryH, warehouseH)

	return e.Start(addr)
}
