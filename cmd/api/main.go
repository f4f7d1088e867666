package main

import (
	"time"

	"wms/internal/config"
	"wms/internal/domain/model"
	"wms/internal/handler"
	"wms/internal/infra/db"
	infraRepo "wms/internal/infra/repository"
	"wms/internal/server"
	"wms/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envがあれば読む（compose環境では環境変数が直接入る）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Warehouse{},
		&model.InventoryRecord{},
		&model.StockTransfer{},
		&model.TransferItem{},
		&model.StockAdjustment{},
		&model.AuditLog{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//Usecase生成
	transferUC := usecase.NewTransferUsecase(txManager, auditRepo, idGen, clock)
	inventoryUC := usecase.NewInventoryUsecase(txManager, auditRepo, clock)
	warehouseUC := usecase.NewWarehouseUsecase(txManager, auditRepo, clock)

	//Handler生成
	transferH := handler.NewTransferHandler(transferUC)
	inventoryH := handler.NewInventoryHandler(inventoryUC)
	warehouseH := handler.NewWarehouseHandler(warehouseUC, auditRepo)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(addr, cfg, transferH, inventoryH, warehouseH); err != nil {
		panic(err)
	}
}
