// Package logger builds *slog.Logger instances for the tenant connectivity
// services and keeps attribute naming consistent across packages.
//
// New applies functional options (format, level, static attributes and
// context extractors) and wraps the chosen handler with LogHandlerDecorator,
// which injects request scoped values such as the tenant group code on every
// record.
//
//	log := logger.New(
//	    logger.FromConfig(cfg)...,
//	)
//	log.InfoContext(ctx, "connection created",
//	    logger.Connection(name),
//	    logger.Kind(kind),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
