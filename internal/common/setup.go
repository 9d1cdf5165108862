package common

import (
	"context"
	"log"
	"strings"

	"barter-trade-go/internal/credit"
	"barter-trade-go/internal/database"
	"barter-trade-go/internal/ledger"
	"barter-trade-go/internal/models"
	"barter-trade-go/internal/notify"
	"barter-trade-go/internal/trade"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	if err := godotenv.Load(); err != nil {
		// Environment variables can be set via other means (shell export, docker, etc.)
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services wires the full service graph. Every command builds the same graph
// so wiring mistakes show up everywhere at once.
type Services struct {
	DbService     *database.Service
	LedgerService *ledger.Service
	CreditService *credit.Service
	NotifyService *notify.Service
	TradeService  *trade.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	policy := credit.DefaultPolicy()
	if cfg.Credit.PolicyFile != "" {
		zap.L().Info("Loading credit policy override", zap.String("file", cfg.Credit.PolicyFile))
		policy, err = credit.LoadPolicy(cfg.Credit.PolicyFile)
		if err != nil {
			dbService.Close()
			return nil, err
		}
	}

	ledgerService := ledger.NewService(dbService)
	creditService := credit.NewService(dbService, policy)
	notifyService := notify.NewService(dbService, notify.NewRegistry())
	tradeService := trade.NewService(dbService, ledgerService, creditService, notifyService)

	return &Services{
		DbService:     dbService,
		LedgerService: ledgerService,
		CreditService: creditService,
		NotifyService: notifyService,
		TradeService:  tradeService,
	}, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
