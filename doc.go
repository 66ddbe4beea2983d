// Package targz packages a file or directory tree into a gzip compressed
// tar archive and unpacks such archives back into a filesystem tree.
//
// The two entry points are [Archiver] and [Extractor]. Both are constructed
// from an input and an output path, run a single streaming operation, and
// report [Stats] with the input size, output size and compression ratio.
//
// Configuration is done using [ConfigOption] functions, which adjust the
// compression level, resource limits, overwrite behavior and symlink policy.
// Telemetry data is captured during each operation and handed to an optional
// [TelemetryHook].
package targz
