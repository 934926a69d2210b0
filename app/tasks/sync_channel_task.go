package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/purplecheck/purple-check/app/config"
	"github.com/purplecheck/purple-check/app/database"
)

type SyncChannelTask struct {
	Task
	ChannelConfig *config.ChannelConfig
	channelRepo   database.ChannelRepository
}

func NewSyncChannelTask(channelName string, channelConfig *config.ChannelConfig, channelRepo database.ChannelRepository) *SyncChannelTask {
	return &SyncChannelTask{
		Task:          NewTask(TaskTypeSyncChannel, channelName),
		ChannelConfig: channelConfig,
		channelRepo:   channelRepo,
	}
}

func (t *SyncChannelTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.channelRepo.UpsertChannel(
		t.ChannelConfig.Channel.Name,
		t.ChannelConfig.Channel.Subreddit,
		t.ChannelConfig.Settings.Enabled)
	if err != nil {
		slog.Error("Task failed", "type", "SyncChannel", "channel", t.ChannelName, "error", err)
		return fmt.Errorf("failed to sync channel config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncChannel",
		"channel", t.ChannelName,
		"duration", t.GetDuration())

	return nil
}
