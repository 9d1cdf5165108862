package main

import (
	"context"
	"flag"

	"barter-trade-go/internal/common"
	"barter-trade-go/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type seedUser struct {
	username string
	email    string
	balance  string
	items    []string
}

var demoUsers = []seedUser{
	{
		username: "alice",
		email:    "alice@example.com",
		balance:  "200.00",
		items:    []string{"Vintage film camera", "Mechanical keyboard"},
	},
	{
		username: "bob",
		email:    "bob@example.com",
		balance:  "150.00",
		items:    []string{"Acoustic guitar", "Board game collection"},
	},
	{
		username: "carol",
		email:    "carol@example.com",
		balance:  "50.00",
		items:    []string{"Road bike"},
	},
}

func seed(ctx context.Context, services *common.Services) error {
	for _, su := range demoUsers {
		user, err := services.DbService.CreateUser(ctx, su.username, su.email)
		if err != nil {
			return err
		}

		balance, err := decimal.NewFromString(su.balance)
		if err != nil {
			return err
		}
		if _, err := services.LedgerService.Recharge(ctx, user.Id, balance); err != nil {
			return err
		}

		for _, title := range su.items {
			item, err := services.DbService.CreateItem(ctx, title, "", user.Id)
			if err != nil {
				return err
			}
			zap.L().Info("Seeded item",
				zap.Int64("item_id", item.Id),
				zap.String("title", item.Title),
				zap.String("owner", user.Username))
		}

		zap.L().Info("Seeded user",
			zap.Int64("user_id", user.Id),
			zap.String("username", user.Username),
			zap.String("balance", su.balance))
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := seed(ctx, services); err != nil {
		zap.L().Fatal("Seeding failed", zap.Error(err))
	}
	zap.L().Info("Seeding complete")
}
