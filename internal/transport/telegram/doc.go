// Package telegram implements the chat transport over the Telegram Bot
// API using long polling. It is the default transport wired by the CLI;
// the workflow itself only depends on the transport interfaces.
package telegram
