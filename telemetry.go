package targz

import (
	"context"
	"encoding/json"
	"time"
)

// now is a function pointer that returns time.Now to the caller.
var now = time.Now

// TelemetryData is a struct type that holds all telemetry data of an
// archiving or extraction operation.
type TelemetryData struct {
	// Dirs is the number of archived or extracted directories
	Dirs int64

	// Duration is the time the operation took
	Duration time.Duration

	// Errors is the number of errors during the operation
	Errors int64

	// Files is the number of archived or extracted regular files
	Files int64

	// InputSize is the size of the input in bytes
	InputSize int64

	// LastError is the last error during the operation
	LastError error

	// Operation is the performed operation, "compress" or "extract"
	Operation string

	// OutputSize is the size of the output in bytes
	OutputSize int64

	// PatternMismatches is the number of skipped entries
	PatternMismatches int64

	// Symlinks is the number of archived or extracted symlinks
	Symlinks int64
}

// String returns a string representation of [TelemetryData].
func (td TelemetryData) String() string {
	b, _ := json.Marshal(td)
	return string(b)
}

// MarshalJSON implements the [encoding/json.Marshaler] interface.
func (td TelemetryData) MarshalJSON() ([]byte, error) {
	var lastError string
	if td.LastError != nil {
		lastError = td.LastError.Error()
	}

	type Alias TelemetryData
	return json.Marshal(&struct {
		LastError string `json:"LastError"`
		*Alias
	}{
		LastError: lastError,
		Alias:     (*Alias)(&td),
	})
}

// TelemetryHook is a function type that performs operations on [TelemetryData]
// after an operation has finished which can be used to submit the data
// to a telemetry service, for example.
type TelemetryHook func(context.Context, *TelemetryData)

// captureDuration captures the duration of the operation
func captureDuration(td *TelemetryData, start time.Time) {
	stop := now()
	td.Duration = stop.Sub(start)
}
