// Package server provides the HTTP server for the MESBoard dashboard and API.
//
// It handles all HTTP concerns:
//
//   - Dashboard serving: the embedded page at "/"
//   - Snapshot API: the latest state of every source at "/api/snapshot"
//   - Notifications: POST "/api/notifications" queues a toast
//   - Server-Sent Events: snapshot, notify, dismiss and refreshed events at "/api/sse"
//
// The server shuts down gracefully when its context is cancelled, giving
// in-flight requests 5 seconds to finish. It is started by [mesboard.Board.Start].
package server
