package logger

import "log/slog"

// StyledLogger is the logger handed to components. The pretty variant adds
// theme colours for terminals, the plain one keeps messages clean for JSON.
type StyledLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	InfoWithCount(msg string, count int, args ...any)
	InfoWithEndpoint(msg string, endpoint string, args ...any)
	WarnWithEndpoint(msg string, endpoint string, args ...any)
	ErrorWithEndpoint(msg string, endpoint string, args ...any)
	InfoWithModel(msg string, model string, args ...any)
	InfoWithStatus(msg string, status string, args ...any)

	GetUnderlying() *slog.Logger
	With(args ...any) StyledLogger
}
