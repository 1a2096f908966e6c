// Package logger provides leveled terminal output for CloudSeal CLI
// commands.
//
// Verbosity is controlled by two flags:
//
//   - --verbose: shows info messages
//   - --debug: shows info and debug messages
//
// Warnings and errors are always shown, on stderr.
//
// Commands create a logger in their PersistentPreRun and keep it for
// the run:
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("loaded %d records", n)
package logger
