// Package logger provides structured logging for objectgraph using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers. The resolution engine logs through
// logger.Get("di.session") and logger.Get("di.container").
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("di.session")
//	log.Debug("instance built", logger.Fields(logger.FieldContract, "app.Store"))
package logger
