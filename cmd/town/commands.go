package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Paddlers/internal/shared/infrastructure/mongo"
	"Paddlers/internal/shared/logs"
	"Paddlers/internal/shared/security"
	"Paddlers/internal/shared/serverconfig"
	transportgrpc "Paddlers/internal/shared/transport/grpc"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/infra/persistence/mongodb"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "按模型建表或补齐字段",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openRepo(cmd.Context(), serverconfig.Current().DB); err != nil {
				return err
			}
			logs.Info("migrate done")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "创建新玩家：村庄、英雄和初始资源，并签发登录 token",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context(), serverconfig.Current().DB)
			if err != nil {
				return err
			}
			s, err := repo.NewPlayer(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			token, err := security.Award(s.Player.ID, ttl)
			if err != nil {
				return err
			}
			fmt.Printf("player:  %d\n", s.Player.ID)
			fmt.Printf("village: %d\n", s.Village.ID)
			fmt.Printf("hero:    %d\n", s.Hero.ID)
			fmt.Printf("token:   %s\n", token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token 有效期，默认 7 天")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		playerID int64
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "给已有玩家签发 token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := security.Award(playerID, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&playerID, "player", 0, "玩家 id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token 有效期，默认 7 天")
	_ = cmd.MarkFlagRequired("player")
	return cmd
}

func newTaxCommand() *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "立即收一轮税",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := serverconfig.Current()
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
			if archive != nil {
				opts = append(opts, service.WithArchive(archive))
			}
			town := service.NewTown(repo, domain.RealClock{}, baseLogger, opts...)

			if !cmd.Flags().Changed("seed") {
				seed = town.TaxSeed()
			}
			reports, err := town.RunTaxCollection(ctx, seed, town.Now())
			if err != nil {
				return err
			}
			if archive != nil {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := archive.Close(closeCtx); err != nil {
					logs.Warn("report archive close", zap.Error(err))
				}
			}
			fmt.Printf("seed %d, %d reports\n", seed, len(reports))
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "本轮种子，不填则随机")
	return cmd
}

func newReportsCommand() *cobra.Command {
	var (
		villageID int64
		limit     int64
	)
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "查看村庄的归档战报和税收报告",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := serverconfig.Current()
			client, err := mongo.Open(cmd.Context(), cfg.MongoDB, logs.Logger())
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			docs, err := mongodb.NewReportRepository(client.Database(cfg.MongoDB.Database)).
				VillageReports(cmd.Context(), villageID, limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			for _, d := range docs {
				if err := enc.Encode(d); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&villageID, "village", 0, "村庄 id")
	cmd.Flags().Int64Var(&limit, "limit", 20, "最多条数，0 不限")
	_ = cmd.MarkFlagRequired("village")
	return cmd
}

func newHealthCommand() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "通过 gRPC 健康检查确认服务是否就绪",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = serverconfig.Current().GRPC.Address
			}
			if target == "" {
				return fmt.Errorf("grpc address is empty")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			st, err := transportgrpc.CheckHealth(ctx, target)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			fmt.Println(st.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "gRPC 地址，默认取 grpc.address")
	return cmd
}
