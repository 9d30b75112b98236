// Package log wraps the standard library logger with named, leveled
// loggers.
//
// Every component asks for its own logger:
//
//	l := log.ForService("source")
//	l.Infof("loaded %d models", n)
//	l.Debugf("etag %s", etag) // printed only when debug is enabled
//
// Lines look like
//
//	2025/01/02 15:04:05.000000 INFO [source>] loaded 4123 models
//
// Debug output is enabled for every logger with SetGlobalDebug, or for a
// single one with EnableDebugFor. SetOutput redirects all loggers, which
// tests use to capture output in a buffer.
//
// The package name shadows the standard library package; alias one of them
// when both are needed.
package log
