// Package logging builds the process-wide slog logger from configuration.
package logging
