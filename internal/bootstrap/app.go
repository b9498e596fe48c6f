package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"chatty-backend/internal/config"
	"chatty-backend/internal/model"
	mysqlClient "chatty-backend/internal/platform/mysql"
	rabbitmqClient "chatty-backend/internal/platform/rabbitmq"
	redisClient "chatty-backend/internal/platform/redis"
	"chatty-backend/internal/repository"
	"chatty-backend/internal/worker"
)

type App struct {
	Config       *config.Config
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	UsageWorker  *worker.UsageWorker
	TokenSweeper *worker.TokenSweeper

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Chat{},
		&model.Message{},
		&model.RefreshToken{},
		&model.UsageRecord{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	usageRepo := repository.NewUsageRecordRepository(mysqlDB)
	usageWorker := worker.NewUsageWorker(mqConn, usageRepo, cfg.RabbitMQ.UsageQueue)
	if err := usageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start usage worker failed: %w", err)
	}

	tokenRepo := repository.NewRefreshTokenRepository(mysqlDB)
	tokenSweeper := worker.NewTokenSweeper(tokenRepo, time.Duration(cfg.Auth.SweepIntervalMinute)*time.Minute)
	tokenSweeper.Start(ctx)

	return &App{
		Config:       cfg,
		MySQL:        mysqlDB,
		Redis:        redisCli,
		MQConn:       mqConn,
		UsageWorker:  usageWorker,
		TokenSweeper: tokenSweeper,
		StartedAt:    time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.TokenSweeper != nil {
		a.TokenSweeper.Close()
	}
	if a.UsageWorker != nil {
		a.UsageWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
