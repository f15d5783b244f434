// Package service implements Herald's business logic.
//
// MarketingService is the entry point for a generate request: it validates
// the request, asks a ContentGenerator for copy, then either publishes it
// right away or registers it with the scheduler. DeliveryService is shared by
// the immediate path and the post dispatcher so both apply the same timeout
// and write the same publish history.
//
// Publishers are reached through a PublisherRouter, which picks the platform
// implementation and wraps each call in a failsafe-go circuit breaker and an
// x/time rate limiter:
//
//	router := service.NewPublisherRouter(service.PublisherRouterConfig{
//	    Publishers: []service.Publisher{linkedin, telegram},
//	    RatePerSec: cfg.Publish.RatePerSec,
//	    Logger:     logger,
//	})
//
// Services return the sentinel errors in errors.go, wrapped with context.
// Handlers map them to Problem Details.
package service
