package api

import (
	"github.com/purplecheck/purple-check/app/config"
	"github.com/purplecheck/purple-check/app/database"
	"github.com/purplecheck/purple-check/app/fetcher"
	"github.com/purplecheck/purple-check/app/tasks"
)

type Handler struct {
	channelConfigs map[string]*config.ChannelConfig
	channelRepo    database.ChannelRepository
	postRepo       database.PostRepository
	feedbackRepo   database.FeedbackRepository
	fetcher        *fetcher.Fetcher
	scheduler      tasks.TaskSchedulerInterface
}
