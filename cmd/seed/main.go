package main

import (
	"fmt"
	"time"

	"github.com/netbill-next/internal/config"
	"github.com/netbill-next/internal/constants"
	"github.com/netbill-next/internal/logger"
	"github.com/netbill-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加计费账户
	accounts := []models.BillingAccount{
		{
			AccountNo: "A-1001",
			Name:      "测试账户一",
			Status:    constants.AccountStatusActive,
			Balance:   models.NewMoneyFromDecimal(decimal.NewFromInt(0)),
		},
		{
			AccountNo: "A-1002",
			Name:      "测试账户二",
			Status:    constants.AccountStatusActive,
			Balance:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		},
		{
			AccountNo: "A-1003",
			Name:      "停机账户",
			Status:    constants.AccountStatusSuspended,
			Balance:   models.NewMoneyFromDecimal(decimal.NewFromInt(0)),
		},
	}

	for _, account := range accounts {
		var existing models.BillingAccount
		if err := models.DB.Where("account_no = ?", account.AccountNo).First(&existing).Error; err != nil {
			if err := models.DB.Create(&account).Error; err != nil {
				stdLog.Printf("Failed to create account %s: %v", account.AccountNo, err)
			} else {
				stdLog.Printf("Created account: %s", account.AccountNo)
			}
		} else {
			stdLog.Printf("Account already exists: %s", account.AccountNo)
		}
	}

	// 添加待结算支付
	now := time.Now()
	payments := []models.PendingPayment{
		{
			ReferenceNo: fmt.Sprintf("SEED-%d-1", now.Unix()),
			AccountNo:   "A-1001",
			Amount:      mustMoney("50.00"),
			Status:      constants.PaymentStatusQueued,
		},
		{
			ReferenceNo: fmt.Sprintf("SEED-%d-2", now.Unix()),
			AccountNo:   "A-1002",
			Amount:      mustMoney("120.50"),
			Status:      constants.PaymentStatusQueued,
		},
		{
			ReferenceNo: fmt.Sprintf("SEED-%d-3", now.Unix()),
			AccountNo:   "A-1003",
			Amount:      mustMoney("30.00"),
			Status:      constants.PaymentStatusPending,
		},
	}

	for _, payment := range payments {
		if err := models.DB.Create(&payment).Error; err != nil {
			stdLog.Printf("Failed to create payment %s: %v", payment.ReferenceNo, err)
		} else {
			stdLog.Printf("Created payment: %s (%s)", payment.ReferenceNo, payment.Status)
		}
	}

	stdLog.Printf("Seed finished")
}

func mustMoney(value string) models.Money {
	money, err := models.NewMoneyFromString(value)
	if err != nil {
		panic(err)
	}
	return money
}
