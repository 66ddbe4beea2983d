package targz

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Stats reports the byte sizes of an operation's input and output.
//
// For compression, InputSize is the sum of the sizes of all archived regular
// files and OutputSize is the size of the produced archive file. For
// extraction, InputSize is the size of the archive file and OutputSize is the
// sum of the sizes of all extracted regular files.
type Stats struct {
	InputSize  int64
	OutputSize int64
}

// Ratio returns OutputSize divided by InputSize, rounded to the given number
// of decimal places. If InputSize is 0, the ratio is undefined and 0.0 is
// returned.
func (s Stats) Ratio(decimals int) float64 {
	if s.InputSize == 0 {
		return 0.0
	}
	pow := math.Pow(10, float64(decimals))
	return math.Round(float64(s.OutputSize)/float64(s.InputSize)*pow) / pow
}

// HumanInputSize returns InputSize formatted with decimal byte units.
func (s Stats) HumanInputSize() string {
	return humanize.Bytes(uint64(s.InputSize))
}

// HumanOutputSize returns OutputSize formatted with decimal byte units.
func (s Stats) HumanOutputSize() string {
	return humanize.Bytes(uint64(s.OutputSize))
}

// String implements the [fmt.Stringer] interface.
func (s Stats) String() string {
	return fmt.Sprintf("input=%s output=%s ratio=%.3f", s.HumanInputSize(), s.HumanOutputSize(), s.Ratio(3))
}
