// Package store holds the latest dashboard snapshots and fans out events.
//
// This package is internal to MESBoard. It keeps one [Snapshot] per stats
// source and publishes every change as an [Event] to subscribers, which the
// server relays to browsers over Server-Sent Events.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Snapshot]: Latest field values extracted from one source
//   - [Event]: A typed message delivered to subscribers
//
// Besides snapshots the store tracks the notification currently on screen,
// so a browser that connects mid-display still sees it.
//
// Subscribers receive events via buffered channels with non-blocking sends;
// slow subscribers miss events rather than block the system.
package store
