package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/purplecheck/purple-check/app/config"
	"github.com/purplecheck/purple-check/app/fetcher"
)

type FetchChannelTask struct {
	Task
	ChannelConfig *config.ChannelConfig
	fetcher       *fetcher.Fetcher
}

func NewFetchChannelTask(channelName string, channelConfig *config.ChannelConfig, f *fetcher.Fetcher) *FetchChannelTask {
	return &FetchChannelTask{
		Task:          NewTask(TaskTypeFetchChannel, channelName),
		ChannelConfig: channelConfig,
		fetcher:       f,
	}
}

func (t *FetchChannelTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.ChannelConfig.Settings.Enabled {
		slog.Debug("Channel disabled, skipping", "channel", t.ChannelName)
		return nil
	}

	added, err := t.fetcher.FetchChannel(ctx, t.ChannelConfig)
	if err != nil {
		return fmt.Errorf("failed to fetch channel: %w", err)
	}

	slog.Info("Task completed",
		"type", "FetchChannel",
		"channel", t.ChannelName,
		"duration", t.GetDuration(),
		"new", added)

	return nil
}
