// Package scheduler holds deferred and recurring posts in memory and
// decides when they are due.
//
// Store is a fire-time index: posts are bucketed by their UTC fire instant
// and a min-heap of instants orders draining. DrainDue hands out everything
// at or before the given instant, so a tick that arrives late still fires
// all overdue posts. NextFireTime computes the following occurrence for
// recurring posts from the scheduled instant, not the tick time, which keeps
// daily and weekly posts from drifting.
//
// Drained posts are in flight until the caller reschedules or releases them.
// Cancel during a flight prevents the reschedule.
package scheduler
