// Package logger builds the slog loggers used across the notification
// pipeline and provides typed attribute constructors so log keys stay
// consistent between packages.
//
// Usage:
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatJSON),
//		logger.WithService("notify"),
//	)
//
//	log.Info("notification delivered",
//		logger.UserID(userID),
//		logger.Provider("realtime"),
//	)
//
// Configuration can also come from the environment:
//
//	cfg, _ := config.Load[logger.Config]()
//	log := logger.NewFromConfig(cfg)
package logger
