package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API server to manage background work.
// Example usage:
//
//	scheduler := NewScheduler(channelConfigs, fetcher, pipe, channelRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewFetchChannelTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueProcessPosts() error
}
