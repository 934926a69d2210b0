package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/purplecheck/purple-check/app/cfg"
	"github.com/purplecheck/purple-check/app/config"
	"github.com/purplecheck/purple-check/app/database"
	"github.com/purplecheck/purple-check/app/fetcher"
	"github.com/purplecheck/purple-check/app/pipeline"
	"github.com/purplecheck/purple-check/app/transport"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	channelConfigs  map[string]*config.ChannelConfig
	fetcher         *fetcher.Fetcher
	pipe            *pipeline.Pipeline
	channelRepo     database.ChannelRepository
	interval        time.Duration
	workerCount     int
	processLimit    int
	processInFlight atomic.Bool
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	taskQueue       chan TaskInterface
}

func NewScheduler(channelConfigs map[string]*config.ChannelConfig, f *fetcher.Fetcher,
	pipe *pipeline.Pipeline, channelRepo database.ChannelRepository) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		channelConfigs: channelConfigs,
		fetcher:        f,
		pipe:           pipe,
		channelRepo:    channelRepo,
		interval:       time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:    cfg.WorkerCount,
		processLimit:   cfg.ProcessLimit,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	if len(s.channelConfigs) == 0 {
		slog.Debug("No channel configurations found")
		return
	}

	slog.Debug("Processing channel configurations", "count", len(s.channelConfigs))

	for _, channelConfig := range s.channelConfigs {
		syncTask := NewSyncChannelTask(channelConfig.Channel.Name, channelConfig, s.channelRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncChannelTask", "channel", channelConfig.Channel.Name, "error", err)
			continue
		}

		if !channelConfig.Settings.Enabled {
			slog.Debug("Channel disabled, skipping FetchChannelTask", "channel", channelConfig.Channel.Name)
			continue
		}

		fetchTask := NewFetchChannelTask(channelConfig.Channel.Name, channelConfig, s.fetcher)
		if err := s.EnqueueTask(fetchTask); err != nil {
			slog.Warn("Failed to enqueue FetchChannelTask", "channel", channelConfig.Channel.Name, "error", err)
		}
	}

	if err := s.EnqueueProcessPosts(); err != nil {
		slog.Warn("Failed to enqueue ProcessPostsTask", "error", err)
	}
}

func (s *Scheduler) enqueueTasks() {
	due, err := s.channelRepo.GetChannelsDueForRefresh()
	if err != nil {
		slog.Warn("Failed to get channels due for refresh", "error", err)
		return
	}

	enqueued := 0
	for _, channel := range due {
		channelConfig, ok := s.channelConfigs[channel.ID]
		if !ok {
			slog.Debug("No configuration for channel, skipping", "channel", channel.ID)
			continue
		}
		if !channelConfig.Settings.Enabled {
			continue
		}

		fetchTask := NewFetchChannelTask(channel.ID, channelConfig, s.fetcher)
		if err := s.EnqueueTask(fetchTask); err != nil {
			slog.Warn("Failed to enqueue FetchChannelTask", "channel", channel.ID, "error", err)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		slog.Debug("Enqueued fetch tasks", "count", enqueued)
	}

	if err := s.EnqueueProcessPosts(); err != nil {
		slog.Warn("Failed to enqueue ProcessPostsTask", "error", err)
	}
}

func (s *Scheduler) EnqueueProcessPosts() error {
	if s.processInFlight.Load() {
		slog.Debug("Post processing already in flight, not enqueueing")
		return nil
	}

	processTask := NewProcessPostsTask(s.pipe, s.processLimit, &s.processInFlight)
	return s.EnqueueTask(processTask)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if errors.Is(err, transport.ErrAuth) {
			slog.Error("Authentication rejected by upstream, not retrying; check credentials", "type", string(task.GetType()), "id", task.GetID())
			return
		}

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "channel", task.GetChannelName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
