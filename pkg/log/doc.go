package log

// Package log provides a small opinionated wrapper around Go's standard
// library logging facilities. Its goal is to offer a consistent way to emit
// logs per service while keeping migration friction low.
//
// Key Features
//
//   - Per service loggers via ForService(name)
//   - Automatic prefix in every line: `[name]`  (example: `[ingest] fetched 12 items`)
//   - Convenience level helpers: Infof, Warnf, Errorf, Debugf
//   - Debug logging can be enabled globally (SetGlobalDebug) or per service
//     (EnableDebugFor / DisableDebugFor)
//   - Central output writer (SetOutput) that updates existing loggers
//   - Optional size-rotated file output via UseFile (lumberjack)
//
// Basic Usage
//
//	ing := log.ForService("ingest")
//	ing.Infof("starting fetch cycle")
//	ing.Warnf("feed %s returned no items", name)
//	ing.Debugf("raw body: %s", body) // printed only when debug enabled
//
// Selective Debug
//
//	log.EnableDebugFor("storage")
//	log.ForService("storage").Debugf("visible")
//	log.ForService("api").Debugf("NOT visible")
//
// Output Routing
//
//	log.UseFile(log.RotationConfig{Path: "/var/log/vestnik/vestnik.log"})
//
// Thread Safety
//
// All exported functions are safe for concurrent use. Internally the package
// relies on sync.Map and atomic primitives for minimal locking.
//
// Testing
//
// Tests can redirect output by calling SetOutput with a bytes.Buffer,
// enabling assertions on log contents.
