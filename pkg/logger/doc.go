// Package logger builds the slog.Logger shared by the client packages.
//
// New applies functional options on top of production-safe defaults (JSON,
// info level, stdout). FromConfig does the same from the env-driven Config,
// so binaries can configure logging with LOG_LEVEL, LOG_FORMAT and APP_ENV.
//
//	log, err := logger.FromConfig(cfg)
//	if err != nil {
//		return err
//	}
//	logger.SetAsDefault(log)
//
//	log.WarnContext(ctx, "storage read failed",
//		logger.Component("session"),
//		logger.Namespace("auth-storage"),
//		logger.Error(err),
//	)
//
// Attribute helpers keep key names consistent across packages; Error returns
// an empty attribute for nil errors so it can be passed unconditionally.
// ContextExtractor callbacks registered with WithContextExtractors add
// request-scoped values to every record.
package logger
