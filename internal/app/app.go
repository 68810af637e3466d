// Package app 按配置组装存储、身份与服务，供服务端与 CLI 共用
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/walter2161/grupo-de-agentes/internal/config"
	"github.com/walter2161/grupo-de-agentes/internal/database"
	"github.com/walter2161/grupo-de-agentes/internal/hub"
	"github.com/walter2161/grupo-de-agentes/internal/identity"
	"github.com/walter2161/grupo-de-agentes/internal/repository"
	"github.com/walter2161/grupo-de-agentes/internal/service"
	"github.com/walter2161/grupo-de-agentes/internal/service/file"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
	"github.com/walter2161/grupo-de-agentes/internal/storage/remote"
)

// Options 组装选项
type Options struct {
	// SessionStore CLI 用于保存登录状态，服务端为空
	SessionStore identity.SessionStore
	// Hub 服务端推送对话更新，CLI 为空
	Hub *hub.Hub
}

// App 组装完成的应用
type App struct {
	Config   *config.Config
	Registry *storage.Registry
	Identity *identity.Provider
	Services *service.Services

	closers []func() error
}

// New 按配置组装应用
func New(ctx context.Context, cfg *config.Config, opts Options) (a *App, err error) {
	a = &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// CLI 独占设备存储，沿用全局容量与跨用户淘汰；服务端多用户共享，容量按用户计算
	deviceLocal := opts.SessionStore != nil
	kvCapacity := cfg.Storage.Capacity
	if !deviceLocal {
		kvCapacity = 0
	}
	kv, userKV, err := a.openKV(ctx, kvCapacity)
	if err != nil {
		return nil, err
	}
	store := storage.NewScopedStore(kv, cfg.Storage.Capacity)
	if deviceLocal {
		store = storage.NewStore(kv, storage.DefaultEvictors()...)
	}
	reg := storage.NewRegistry(storage.NewLocalBackend(store))

	var users repository.UserStore = identity.NewKVUserDirectory(userKV)
	var tokens repository.TokenStore
	if cfg.Storage.Remote {
		db, err := database.New(cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		repos := repository.NewRepositories(db.DB)
		remote.Register(reg, remote.Stores{
			Profiles:     repos.Profile,
			Agents:       repos.Agent,
			Groups:       repos.Group,
			Messages:     repos.Message,
			Interactions: repos.Interaction,
			Collections:  repos.Collection,
		}, cfg.Storage.IsRemoteDomain)
		users, tokens = repos.Auth, repos.Auth
		slog.Info("remote storage enabled", "domains", cfg.Storage.RemoteDomains)
	}

	secret := cfg.Session.JWTSecret
	if secret == "" {
		secret, err = identity.LoadOrCreateSecret(filepath.Join(filepath.Dir(cfg.Session.TokenFile), "jwt.secret"))
		if err != nil {
			return nil, fmt.Errorf("load session secret: %w", err)
		}
	}
	issuer, err := identity.NewTokenIssuer(secret, cfg.Session.Issuer, cfg.Session.TTL)
	if err != nil {
		return nil, err
	}

	files, err := file.NewServiceFromConfig(ctx, cfg.Media)
	if err != nil {
		return nil, err
	}

	a.Registry = reg
	a.Identity = identity.NewProvider(identity.Options{
		Users:    users,
		Tokens:   tokens,
		Registry: reg,
		Issuer:   issuer,
		Store:    opts.SessionStore,
		Migrator: storage.NewMigrator(reg),
	})
	a.Services, err = service.NewServices(ctx, service.Options{
		Config:   cfg,
		Registry: reg,
		Identity: a.Identity,
		Files:    files,
		Hub:      opts.Hub,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// openKV 打开本地键值存储，返回数据存储与用户目录两个独立空间
func (a *App) openKV(ctx context.Context, capacity int64) (storage.KV, storage.KV, error) {
	cfg := a.Config
	switch cfg.Storage.Local {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		prefix := cfg.Storage.KeyPrefix
		return storage.NewRedisKV(client, prefix+"data:", capacity),
			storage.NewRedisKV(client, prefix+"users:", 0), nil

	case "sqlite":
		db, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		return openSQLiteKV(db, capacity)

	default:
		return storage.NewMemoryKV(capacity), storage.NewMemoryKV(0), nil
	}
}

func openSQLiteKV(db *sql.DB, capacity int64) (storage.KV, storage.KV, error) {
	kv, err := storage.NewSQLiteKV(db, "kv", capacity)
	if err != nil {
		return nil, nil, err
	}
	users, err := storage.NewSQLiteKV(db, "users", 0)
	if err != nil {
		return nil, nil, err
	}
	return kv, users, nil
}

// Close 释放连接，按打开的逆序关闭
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
