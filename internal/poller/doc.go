// Package poller refreshes MESBoard stats sources on a schedule.
//
// This package is internal to MESBoard. It fetches each configured JSON
// stats endpoint, runs the source's extractor over the body and emits a
// [RefreshResult] per poll. Requests run on a bounded worker pool.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and a body cap
//   - [Scheduler]: Periodic polling with per-source intervals
//   - [SourceInfo]: Configuration for a source to poll
//   - [RefreshResult]: Outcome of polling a single source
package poller
