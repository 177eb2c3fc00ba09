// Package logging builds the process *slog.Logger from configuration. The
// logger is passed explicitly to every component; nothing here is global.
package logging
