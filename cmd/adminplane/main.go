package main

import (
	"context"
	"log"
	"os"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-adminplane/pkg/config"
	"clinic-adminplane/pkg/db"
	"clinic-adminplane/pkg/gen"
	"clinic-adminplane/pkg/health"
	"clinic-adminplane/pkg/logger"
	"clinic-adminplane/pkg/objstore"
	"clinic-adminplane/pkg/redis"
	"clinic-adminplane/pkg/sequence"
	"clinic-adminplane/pkg/server"
	"clinic-adminplane/services/attendance"
	"clinic-adminplane/services/clinic"
	"clinic-adminplane/services/dashboard"
	"clinic-adminplane/services/directory"
	"clinic-adminplane/services/guard"
	"clinic-adminplane/services/promo"
	"clinic-adminplane/services/system"
	"clinic-adminplane/services/voucher"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		gen.Module,
		objstore.Module,
		fx.Provide(
			registerAsynqClient,
			registerAsynqMux,
			registerAsynqServer,
		),
		fx.Invoke(
			autoMigrate,
			db.Otel,
			registerDBMetrics,
			registerTaskHandlers,
			runAsynqServer,
		),
		voucher.Module,
		attendance.Module,
		guard.Module,
		promo.Module,
		directory.Module,
		clinic.Module,
		dashboard.Module,
		system.Module,
		health.Module,
		server.ProvideHTTPServer,
		voucher.Routes,
		attendance.Routes,
		guard.Routes,
		promo.Routes,
		directory.Routes,
		clinic.Routes,
		dashboard.Routes,
		system.Routes,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&voucher.Voucher{},
		&voucher.VoucherUsage{},
		&voucher.PatientVoucherCode{},
		&attendance.Record{},
		&guard.Config{},
		&promo.Image{},
		&promo.History{},
		&directory.Patient{},
		&directory.Doctor{},
		&directory.Employee{},
		&clinic.Settings{},
		&system.User{},
	)
}

func registerDBMetrics(gdb *gorm.DB, cfg *config.Config) error {
	return db.Metric(gdb, cfg.Database.DBNAME)
}

func registerAsynqClient(lc fx.Lifecycle, cfg *config.Config) *asynq.Client {
	client := asynq.NewClient(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
	)

	if err := client.Ping(); err != nil {
		zap.L().Error("[Asynq] Failed to connect to Asynq", zap.Error(err))
		os.Exit(1)
	}

	zap.L().Info("[Asynq] Connected to Asynq")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

func registerAsynqMux() *asynq.ServeMux {
	return asynq.NewServeMux()
}

func registerAsynqServer(cfg *config.Config) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency:    10,
			RetryDelayFunc: asynq.DefaultRetryDelayFunc,
			Queues: map[string]int{
				"default": 10,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				zap.L().Error("asynq task permanently failed", zap.String("task_type", task.Type()), zap.Error(err))
			}),
		},
	)
}

func registerTaskHandlers(mux *asynq.ServeMux, h *promo.TaskHandler) {
	promo.RegisterTasks(mux, h)
}

func runAsynqServer(lc fx.Lifecycle, server *asynq.Server, mux *asynq.ServeMux) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := server.Start(mux); err != nil {
					zap.L().Error("[Asynq] Failed to start Asynq server", zap.Error(err))
					os.Exit(1)
				}
			}()
			zap.L().Info("[Asynq] Asynq server started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			server.Stop()
			return nil
		},
	})
}
