package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/purplecheck/purple-check/app/config"
	"github.com/purplecheck/purple-check/app/database"
	"github.com/purplecheck/purple-check/app/fetcher"
	"github.com/purplecheck/purple-check/app/tasks"
)

func NewHandler(channelConfigs map[string]*config.ChannelConfig, channelRepo database.ChannelRepository,
	postRepo database.PostRepository, feedbackRepo database.FeedbackRepository,
	f *fetcher.Fetcher, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		channelConfigs: channelConfigs,
		channelRepo:    channelRepo,
		postRepo:       postRepo,
		feedbackRepo:   feedbackRepo,
		fetcher:        f,
		scheduler:      scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if channelCount, err := h.channelRepo.GetChannelCount(); err == nil {
		health["channels"] = channelCount
	}

	health["loaded_configurations"] = len(h.channelConfigs)

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if channelCount, err := h.channelRepo.GetChannelCount(); err == nil {
		stats["channels"] = channelCount
	}

	if postCount, err := h.postRepo.GetPostCount(); err == nil {
		stats["posts"] = postCount
	}

	if statusCounts, err := h.postRepo.GetStatusCounts(); err == nil {
		stats["posts_by_status"] = statusCounts
	}

	if feedbackCount, err := h.feedbackRepo.GetFeedbackCount(); err == nil {
		stats["feedback_records"] = feedbackCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListChannels(c *gin.Context) {
	stored, err := h.channelRepo.GetChannels()
	if err != nil {
		slog.Error("Failed to list channels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list channels"})
		return
	}

	storedByID := make(map[string]database.Channel, len(stored))
	for _, channel := range stored {
		storedByID[channel.ID] = channel
	}

	channels := make([]map[string]interface{}, 0, len(h.channelConfigs))

	for _, channelConfig := range h.channelConfigs {
		channelInfo := map[string]interface{}{
			"name":             channelConfig.Channel.Name,
			"subreddit":        channelConfig.Channel.Subreddit,
			"enabled":          channelConfig.Settings.Enabled,
			"request_limit":    channelConfig.Settings.RequestLimit,
			"max_pages":        channelConfig.Settings.MaxPages,
			"refresh_interval": (time.Duration(channelConfig.Settings.RefreshInterval) * time.Second).String(),
		}

		if channel, ok := storedByID[channelConfig.Channel.Name]; ok {
			channelInfo["last_post_id"] = channel.LastPostID
			channelInfo["last_fetched_at"] = channel.LastFetchedAt
			channelInfo["next_fetch_at"] = channel.NextFetchAt
			channelInfo["updated_at"] = channel.UpdatedAt
		}

		channels = append(channels, channelInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"channels": channels,
		"total":    len(channels),
	})
}

func (h *Handler) APIGetChannelDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing channel name parameter"})
		return
	}

	channelConfig, ok := h.channelConfigs[name]
	if !ok {
		slog.Error("Channel configuration not found", "channel", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel configuration not found"})
		return
	}

	channel, err := h.channelRepo.GetChannel(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_channel", "channel", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if channel == nil {
		slog.Error("Channel not found in database", "channel", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":             name,
		"subreddit":        channelConfig.Channel.Subreddit,
		"enabled":          channelConfig.Settings.Enabled,
		"request_limit":    channelConfig.Settings.RequestLimit,
		"max_pages":        channelConfig.Settings.MaxPages,
		"refresh_interval": (time.Duration(channelConfig.Settings.RefreshInterval) * time.Second).String(),
	}

	details["database"] = map[string]interface{}{
		"id":                   channel.ID,
		"subreddit":            channel.Subreddit,
		"last_post_id":         channel.LastPostID,
		"last_post_created_at": channel.LastPostCreatedAt,
		"last_fetched_at":      channel.LastFetchedAt,
		"next_fetch_at":        channel.NextFetchAt,
		"created_at":           channel.CreatedAt,
		"updated_at":           channel.UpdatedAt,
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIFetchChannel(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing channel name parameter"})
		return
	}

	channelConfig, ok := h.channelConfigs[name]
	if !ok {
		slog.Error("Channel configuration not found", "channel", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel configuration not found"})
		return
	}

	fetchTask := tasks.NewFetchChannelTask(name, channelConfig, h.fetcher)
	if err := h.scheduler.EnqueueTask(fetchTask); err != nil {
		slog.Error("Error enqueueing fetch task", "channel", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue fetch task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Fetch task enqueued successfully",
		"task": gin.H{
			"id":   fetchTask.ID,
			"type": fetchTask.Type,
		},
	})
}

func (h *Handler) APIProcessPosts(c *gin.Context) {
	if err := h.scheduler.EnqueueProcessPosts(); err != nil {
		slog.Error("Error enqueueing process task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue process task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Process task enqueued successfully",
	})
}

func (h *Handler) APIGetPost(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing post id parameter"})
		return
	}

	post, err := h.postRepo.GetPost(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_post", "post", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	response := gin.H{
		"id":              post.ID,
		"channel_id":      post.ChannelID,
		"title":           post.Title,
		"author":          post.Author,
		"permalink":       post.Permalink,
		"created_at":      post.CreatedAt,
		"status":          post.Status,
		"handle":          post.Handle,
		"handle_verified": post.HandleVerified,
		"verdict":         post.Verdict,
		"processed_at":    post.ProcessedAt,
		"fetched_at":      post.FetchedAt,
	}

	if entries, err := h.feedbackRepo.GetLogForPost(id); err == nil {
		log := make([]gin.H, 0, len(entries))
		for _, entry := range entries {
			log = append(log, gin.H{
				"stage":      entry.Stage,
				"detail":     entry.Detail,
				"created_at": entry.CreatedAt,
			})
		}
		response["processing_log"] = log
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIGetFeedback(c *gin.Context) {
	giver := c.Query("giver")
	receiver := c.Query("receiver")
	if giver == "" || receiver == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing giver or receiver query parameter"})
		return
	}

	rec, err := h.feedbackRepo.GetFeedback(giver, receiver)
	if err != nil {
		slog.Error("Database error", "operation", "get_feedback", "giver", giver, "receiver", receiver, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feedback not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"giver":         rec.Giver,
		"receiver":      rec.Receiver,
		"rating":        rec.Rating,
		"comment":       rec.Comment,
		"giver_role":    rec.GiverRole,
		"receiver_role": rec.ReceiverRole,
		"platform":      rec.Platform,
		"medium":        rec.Medium,
		"source":        rec.Source,
		"created_at":    rec.CreatedAt,
		"updated_at":    rec.UpdatedAt,
	})
}
