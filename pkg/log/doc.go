// Package log provides seguro's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. It is backed by Go's standard
// library slog text and JSON handlers, so call sites stay terse while the
// output format is swappable by configuration.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormat(log.FormatText),
//	)
//	l = l.With(log.Component("bench"))
//	l.Info("write phase complete", log.Int("events", n), log.Dur("elapsed", d))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config holding level
// and format strings, typically sourced from SEGURO_LOG_LEVEL and
// SEGURO_LOG_FORMAT.
//
// # Interop
//
// Loggers are passed explicitly; there is no process-global logger. Use
// RedirectStdLog to route standard-library logging (for example from the
// storage engine's fallback paths) into a Logger.
package log
