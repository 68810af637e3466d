package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Migrator 登录后迁移数据：中立命名空间 -> 用户命名空间 -> 远程后端
type Migrator struct {
	store    *Store
	registry *Registry
}

// NewMigrator 创建迁移器
func NewMigrator(registry *Registry) *Migrator {
	return &Migrator{store: registry.Local().Store(), registry: registry}
}

// Migrate 迁移 userID 的数据
func (m *Migrator) Migrate(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := m.adoptAnonymous(ctx, userID); err != nil {
		return fmt.Errorf("migrate anonymous data: %w", err)
	}
	if err := m.pushRemote(ctx, userID); err != nil {
		return fmt.Errorf("migrate to remote: %w", err)
	}
	return nil
}

// adoptAnonymous 将未登录时写入的裸键移入用户命名空间，用户已有的数据优先
func (m *Migrator) adoptAnonymous(ctx context.Context, userID string) error {
	kv := m.store.KV()
	keys, err := kv.Keys(ctx)
	if err != nil {
		return err
	}

	for _, name := range keys {
		if _, ok := KeyFromName(name); !ok {
			continue
		}
		value, ok, err := kv.Get(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		_, exists, err := m.store.ReadRaw(ctx, userID, name)
		if err != nil {
			return err
		}
		if !exists {
			if err := m.store.WriteRaw(ctx, userID, name, value); err != nil {
				return err
			}
			slog.Info("adopted anonymous data", "user_id", userID, "key", name)
		}
		if err := kv.Remove(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// pushRemote 将本地数据写入远程为空的数据域
func (m *Migrator) pushRemote(ctx context.Context, userID string) error {
	keys, err := m.store.KV().Keys(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	prefix := userID + "-"
	for _, qk := range keys {
		name, ok := strings.CutPrefix(qk, prefix)
		if !ok {
			continue
		}
		key, ok := KeyFromName(name)
		if !ok || m.registry.IsLocal(key.Domain) {
			continue
		}

		g.Go(func() error {
			remote := m.registry.For(key.Domain)
			_, found, err := remote.Load(gctx, userID, key)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			if found {
				return nil
			}
			raw, ok, err := m.store.ReadRaw(gctx, userID, name)
			if err != nil || !ok {
				return err
			}
			if err := remote.Save(gctx, userID, key, []byte(raw)); err != nil {
				return fmt.Errorf("save %s: %w", name, err)
			}
			slog.Info("migrated local data to remote", "user_id", userID, "key", name, "backend", remote.Name())
			return nil
		})
	}
	return g.Wait()
}
