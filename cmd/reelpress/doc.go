// Package main hosts the reelpress CLI entrypoint and command graph.
//
// The Cobra-based command tree starts the chat-driven production daemon,
// inspects post history, validates and scaffolds configuration, and sends
// test notifications. Configuration resolution happens once per invocation;
// subcommands stay thin and delegate to the internal packages.
package main
