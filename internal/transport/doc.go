// Package transport defines the chat boundary the workflow drives.
//
// The core never speaks a concrete chat protocol. Inbound interactions
// arrive as typed events on a channel; outbound messages, previews, and
// videos go through the Transport interface. Tests script a fake transport,
// and the daemon wires whichever implementation the deployment configures.
package transport
