package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/KostasCherv/protocol-analysis/internal/credit/application"
	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
	"github.com/KostasCherv/protocol-analysis/internal/credit/infrastructure/messaging"
	memoryrepo "github.com/KostasCherv/protocol-analysis/internal/credit/infrastructure/persistence/memory"
	mysqlrepo "github.com/KostasCherv/protocol-analysis/internal/credit/infrastructure/persistence/mysql"
	httpserver "github.com/KostasCherv/protocol-analysis/internal/credit/interfaces/http"
	"github.com/KostasCherv/protocol-analysis/pkg/config"
	"github.com/KostasCherv/protocol-analysis/pkg/logger"
	"github.com/KostasCherv/protocol-analysis/pkg/middleware"
	"github.com/KostasCherv/protocol-analysis/pkg/mq"
)

var configPath = flag.String("config", "configs/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	log, err := logger.Init(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	log = log.With("service", cfg.ServiceName, "version", cfg.Version)

	// 3. Domain wiring
	riskCfg := domain.RiskConfig{
		OpenThreshold:        decimal.NewFromFloat(cfg.Risk.OpenThreshold),
		LiquidationThreshold: decimal.NewFromFloat(cfg.Risk.LiquidationThreshold),
		LiquidationPenalty:   decimal.NewFromFloat(cfg.Risk.LiquidationPenalty),
	}
	rateParams := domain.RateModelParams{
		BaseRate:  decimal.NewFromFloat(cfg.RateModel.BaseRate),
		Kink1:     decimal.NewFromFloat(cfg.RateModel.Kink1),
		Kink2:     decimal.NewFromFloat(cfg.RateModel.Kink2),
		Slope1:    decimal.NewFromFloat(cfg.RateModel.Slope1),
		Slope2:    decimal.NewFromFloat(cfg.RateModel.Slope2),
		Slope3:    decimal.NewFromFloat(cfg.RateModel.Slope3),
		SpreadFee: decimal.NewFromFloat(cfg.RateModel.SpreadFee),
	}
	strategyCfg := domain.StrategyConfig{
		Name: cfg.Strategy.Name,
		APY:  decimal.NewFromFloat(cfg.Strategy.APY),
	}

	var (
		world  *domain.World
		oracle *domain.StaticOracle
	)
	if cfg.Simulator.SeedDemoWorld {
		world, oracle = application.NewDemoWorld(riskCfg, rateParams, strategyCfg)
	} else {
		oracle = domain.NewStaticOracle(map[string]decimal.Decimal{
			"USDC": decimal.NewFromInt(1),
			"ETH":  decimal.NewFromInt(3000),
		})
		pool := domain.NewPool("USDC",
			decimal.NewFromInt(1_000_000), decimal.Zero,
			domain.NewInterestRateModel(rateParams))
		world = domain.NewWorld(pool, oracle, riskCfg, strategyCfg)
	}

	// 4. Infrastructure：DSN 为空时运行在纯内存模式
	var (
		accounts  domain.CreditAccountRepository
		pools     domain.PoolRepository
		publisher domain.EventPublisher
		relay     *messaging.OutboxRelay
	)
	if cfg.Database.DSN == "" {
		log.Info("running in memory mode, no database configured")
		accounts = memoryrepo.NewCreditAccountRepo()
		pools = memoryrepo.NewPoolRepo()
		publisher = messaging.NewLogEventPublisher(log)
	} else {
		db, err := gorm.Open(mysql.Open(cfg.Database.DSN), &gorm.Config{})
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Error("failed to get database handle", "error", err)
			os.Exit(1)
		}
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)

		if cfg.Environment == "dev" {
			if err := db.AutoMigrate(
				&mysqlrepo.CreditAccountModel{},
				&mysqlrepo.PoolModel{},
				&messaging.OutboxMessage{},
			); err != nil {
				log.Error("failed to migrate database", "error", err)
			}
		}

		accounts = mysqlrepo.NewCreditAccountRepo(db)
		pools = mysqlrepo.NewPoolRepo(db)

		if len(cfg.Kafka.Brokers) > 0 {
			producer, err := mq.NewProducer(mq.KafkaConfig{Brokers: cfg.Kafka.Brokers}, log)
			if err != nil {
				log.Error("failed to create kafka producer", "error", err)
				os.Exit(1)
			}
			defer producer.Close()
			publisher = messaging.NewOutboxEventPublisher(db)
			relay = messaging.NewOutboxRelay(db, producer, cfg.Kafka.Topic, log)
		} else {
			publisher = messaging.NewLogEventPublisher(log)
		}
	}

	// 5. Application & Interfaces
	app := application.NewCreditAppService(world, oracle, accounts, pools, publisher, log)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging(log))

	handler := httpserver.NewCreditHandler(app)
	handler.RegisterRoutes(&r.RouterGroup)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if relay != nil {
		go func() {
			if err := relay.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error("outbox relay stopped", "error", err)
			}
		}()
	}

	go func() {
		log.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	log.Info("stopped")
}
