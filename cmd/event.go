package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/rbac-service/internal/authorization"
	"github.com/frahmantamala/rbac-service/internal/core/events"
	"github.com/frahmantamala/rbac-service/pkg/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Authorization snapshot cache commands",
}

var invalidateCacheCmd = &cobra.Command{
	Use:   "invalidate [role-id]",
	Short: "Drop every cached authorization snapshot",
	Long: `Publish a role.permissions_changed event so the shared redis snapshot cache moves to a new generation.
Use it after editing roles or permissions directly in the database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var roleID int64
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid role id %q: %w", args[0], err)
			}
			roleID = id
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		slogger := logger.LoggerWrapper()
		if !cfg.Redis.Enabled {
			slogger.Info("redis is disabled, snapshots live in each server process and expire on their own")
			return nil
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		return publishInvalidation(cmd.Context(), authorization.NewRedisCache(client, cfg.Redis.SnapshotTTL), roleID)
	},
}

// publishInvalidation wires the cache the same way the server does and fires one access change.
func publishInvalidation(ctx context.Context, cache authorization.SnapshotCache, roleID int64) error {
	slogger := logger.LoggerWrapper()
	bus := events.NewEventBus(slogger)
	authorization.NewResolver(nil, cache, nil, slogger).Subscribe(bus)

	event := events.NewRoleEvent(events.EventTypeRolePermissionsChanged, roleID)
	slogger.Info("publishing access change", "event_id", event.EventID(), "event_type", event.EventType())
	if err := bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to invalidate snapshots: %w", err)
	}

	generation, err := cache.Generation(ctx)
	if err != nil {
		return fmt.Errorf("failed to read snapshot generation: %w", err)
	}
	slogger.Info("authorization snapshots invalidated", "generation", generation)
	return nil
}

func init() {
	cacheCmd.AddCommand(invalidateCacheCmd)
	rootCmd.AddCommand(cacheCmd)
}
