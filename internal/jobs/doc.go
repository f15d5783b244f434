// Package jobs implements background job processing for the Herald API.
//
// Jobs run independently of HTTP request handling and are started and
// stopped by cmd/server.
//
// # Post Dispatcher
//
// PostDispatcher is the tick driver for scheduled posts. On every boundary
// of the SCHEDULER_TICK cron expression it drains the posts that are due
// from the scheduler store, publishes each one, and either reschedules it
// (daily, weekly) or releases it (once):
//
//	d := jobs.NewPostDispatcher(jobs.PostDispatcherConfig{
//	    Store:    store,
//	    Delivery: deliveryService,
//	    Schedule: tick,
//	    Workers:  cfg.Scheduler.Workers,
//	})
//	d.Start()
//	defer d.Stop()
//
// # Error Handling
//
// Jobs log errors but don't crash the application. A failed or panicking
// publish affects only its own post.
package jobs
