package mongo

import (
	"context"
	"errors"
	"time"

	"Paddlers/internal/shared/serverconfig"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

var ErrDisabled = errors.New("mongodb uri is empty")

// Open 连接并 ping；URI 为空返回 ErrDisabled，调用方据此关闭归档。
func Open(ctx context.Context, cfg serverconfig.MongoDBConfig, l *zap.Logger) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, ErrDisabled
	}
	if l == nil {
		l = zap.NewNop()
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err = client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	l.Info("open mongodb success", zap.String("database", cfg.Database))
	return client, nil
}
