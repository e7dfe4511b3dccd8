package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Paddlers/internal/shared/infrastructure/db"
	"Paddlers/internal/shared/infrastructure/mongo"
	"Paddlers/internal/shared/logs"
	"Paddlers/internal/shared/serverconfig"
	"Paddlers/internal/shared/transport"
	transportgrpc "Paddlers/internal/shared/transport/grpc"
	transporthttp "Paddlers/internal/shared/transport/http"
	"Paddlers/internal/shared/transport/ws"
	"Paddlers/internal/shared/utils"
	"Paddlers/internal/town/actor"
	"Paddlers/internal/town/actors"
	"Paddlers/internal/town/dc"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/infra/persistence/mongodb"
	"Paddlers/internal/town/infra/persistence/mysql"
	"Paddlers/internal/town/interfaces/handler"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

const shutdownTimeout = 10 * time.Second

var cfgFile string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "town",
		Short:        "Paddlers 村庄模拟服务",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := serverconfig.Load(cfgFile); err != nil {
				return err
			}
			return logs.Init("town", serverconfig.Current().Log)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logs.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径，默认向上查找 configs/conf.yml")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	root.AddCommand(newTokenCommand())
	root.AddCommand(newTaxCommand())
	root.AddCommand(newReportsCommand())
	root.AddCommand(newHealthCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动模拟、HTTP/WS 接口和 gRPC 健康检查",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, serverconfig.Current())
		},
	}
}

// openRepo 打开数据库并建表。
func openRepo(ctx context.Context, cfg serverconfig.DBConfig) (*mysql.TownRepo, error) {
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	repo := mysql.NewTownRepo(gdb)
	if err := repo.AutoMigrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, nil
}

// openArchive mongodb.uri 为空时返回 nil，归档关闭。
func openArchive(ctx context.Context, cfg serverconfig.Config, log logx.Logger) (*dc.ReportDC, func(), error) {
	client, err := mongo.Open(ctx, cfg.MongoDB, logs.Logger())
	if errors.Is(err, mongo.ErrDisabled) {
		logs.Info("report archive disabled")
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open mongodb: %w", err)
	}
	repo := mongodb.NewReportRepository(client.Database(cfg.MongoDB.Database))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logs.Warn("report archive index", zap.Error(err))
	}
	archive := dc.NewReportDC(repo, log, dc.WithFlushEvery(cfg.Sim.ArchiveFlush))
	return archive, func() { _ = client.Disconnect(context.Background()) }, nil
}

func townOptions(cfg serverconfig.SimConfig) ([]service.Option, error) {
	ids, err := utils.NewSnowflake(cfg.NodeID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.TaxTimezone)
	if err != nil {
		return nil, fmt.Errorf("tax timezone %q: %w", cfg.TaxTimezone, err)
	}
	return []service.Option{service.WithIDGenerator(ids), service.WithTaxLocation(loc)}, nil
}

func serve(ctx context.Context, cfg serverconfig.Config) error {
	logs.Info("conf", zap.Any("sim", cfg.Sim), zap.String("db_driver", cfg.DB.Driver))
	serverconfig.OnReload = func(c serverconfig.Config) {
		logs.SetLevel(c.Log.Level)
	}
	baseLogger := logx.NewZapLogger(logs.Logger())

	repo, err := openRepo(ctx, cfg.DB)
	if err != nil {
		return err
	}
	archive, closeMongo, err := openArchive(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer closeMongo()

	opts, err := townOptions(cfg.Sim)
	if err != nil {
		return err
	}
	hub := ws.NewHub()
	opts = append(opts, service.WithNotifier(handler.NewVillageFeed(hub)))
	if archive != nil {
		opts = append(opts, service.WithArchive(archive))
	}
	town := service.NewTown(repo, domain.RealClock{}, baseLogger, opts...)

	rt := actor.NewRuntime(town, actors.Config{
		Shards:              cfg.Sim.Shards,
		PollInterval:        cfg.Sim.PollInterval,
		EconomyInterval:     cfg.Sim.EconomyInterval,
		CombatInterval:      cfg.Sim.CombatInterval,
		AttackSpawnInterval: cfg.Sim.AttackSpawnInterval,
		AttackTravel:        cfg.Sim.AttackTravel,
	}, baseLogger, cfg.Sim.AskTimeout)

	host := cfg.HTTPServer.Host
	if host == "" {
		host = "0.0.0.0"
	}
	limiter := transport.NewPlayerLimiter(cfg.HTTPServer.RatePerSecond, cfg.HTTPServer.RateBurst)
	httpServer := transporthttp.NewHttpServer(fmt.Sprintf("%s:%d", host, cfg.HTTPServer.Port), nil, baseLogger)
	httpHandler := handler.NewHttpHandler(rt, baseLogger)
	httpHandler.Limiter = limiter
	httpHandler.RegisterRoutes(httpServer.API())
	wsHandler := handler.NewWsHandler(rt, hub, cfg.WS.OutBuffer, cfg.WS.NeedSecret, baseLogger)
	wsHandler.Limiter = limiter
	wsHandler.Mount(httpServer.Engine())

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- fmt.Errorf("town http server start failed: %w", err)
		}
	}()

	var rpcServer *transportgrpc.Server
	if cfg.GRPC.Address != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			errCh <- fmt.Errorf("grpc listen %s: %w", cfg.GRPC.Address, err)
		} else {
			rpcServer = transportgrpc.NewServer(baseLogger)
			go func() {
				if err := rpcServer.Serve(lis); err != nil {
					errCh <- fmt.Errorf("town grpc server failed: %w", err)
				}
			}()
			rpcServer.SetServing(true)
		}
	}
	httpServer.SetReady(true)
	logs.Info("town server started", zap.Int("http_port", cfg.HTTPServer.Port), zap.String("grpc", cfg.GRPC.Address))

	var runErr error
	select {
	case <-ctx.Done():
		logs.Info("收到退出信号，准备优雅退出")
	case runErr = <-errCh:
		logs.Error("服务异常退出", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	httpServer.SetReady(false)
	if rpcServer != nil {
		rpcServer.SetServing(false)
	}
	_ = httpServer.Shutdown(shutdownCtx)
	if rpcServer != nil {
		rpcServer.Stop()
	}
	rt.Shutdown()
	if archive != nil {
		if err := archive.Close(shutdownCtx); err != nil {
			logs.Warn("report archive close", zap.Error(err))
		}
	}
	return runErr
}
