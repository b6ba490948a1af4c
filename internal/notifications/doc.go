// Package notifications announces finished analysis runs.
//
// The default implementation publishes to the ntfy topic configured under
// [notifications] in config.toml and degrades to a no-op when no topic is
// set. Failed runs are always announced; completed runs only when
// notifications.on_success is enabled.
package notifications
