// Package mesboard keeps a manufacturing-execution-system dashboard live.
//
// A [Board] polls JSON stats endpoints ([Source]), pulls the values the
// dashboard shows out of each document ([Field]), and pushes them to
// browsers over Server-Sent Events. Alerts are shown through a
// notification queue that displays one message at a time, in order.
//
// # Quick Start
//
//	src, _ := mesboard.NewSource("production", "http://mes.local/api/production-stats",
//	    mesboard.WithField("total-tasks", "total", mesboard.FormatNumber),
//	    mesboard.WithField("completion-rate", "completion_rate", mesboard.FormatPercent),
//	)
//	board, _ := mesboard.New(mesboard.WithSource(src))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until ctx is cancelled
//
// # Formats
//
// A [Format] turns a JSON value into display text:
//
//   - [FormatPlain]: strings as-is, numbers in shortest form
//   - [FormatPercent]: a percentage value, 62.5 becomes "62.5%"
//   - [FormatRatio]: a 0..1 ratio, 0.625 becomes "62.5%"
//   - [FormatNumber]: thousands separators, 12345 becomes "12,345"
//   - [FormatTimestamp]: ISO-8601 to "2006-01-02 15:04:05"
//
// # Notifications
//
// [Board.Notify] queues a message. Failed refreshes queue a danger alert,
// at most once per source per alert window ([WithAlertWindow]), and a
// source that recovers queues a success notice. The timing primitives live
// in the notify, ratelimit and clock packages and can be used on their own.
//
// # Architecture
//
//   - internal/poller: concurrent polling on a worker pool
//   - internal/store: latest snapshots plus an event bus
//   - internal/server: dashboard, snapshot API, SSE stream, notification API
//   - internal/mes: a demo MES backend serving the stats endpoints
//   - dashboard: embedded web UI
package mesboard
