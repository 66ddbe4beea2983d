package targz

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestLimitErrorReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		want    string
		wantErr bool
	}{
		{
			name:    "below limit",
			input:   "1234567890",
			limit:   100,
			want:    "1234567890",
			wantErr: false,
		},
		{
			name:    "at limit",
			input:   "1234567890",
			limit:   10,
			want:    "1234567890",
			wantErr: true,
		},
		{
			name:    "above limit",
			input:   "1234567890",
			limit:   5,
			want:    "12345",
			wantErr: true,
		},
		{
			name:    "disabled limit",
			input:   "1234567890",
			limit:   -1,
			want:    "1234567890",
			wantErr: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ler := newLimitErrorReader(strings.NewReader(test.input), test.limit)

			var buf bytes.Buffer
			_, err := io.Copy(&buf, ler)
			if (err != nil) != test.wantErr {
				t.Errorf("io.Copy() error = %v, wantErr %v", err, test.wantErr)
			}
			if buf.String() != test.want {
				t.Errorf("io.Copy() read %q, want %q", buf.String(), test.want)
			}
			if ler.ReadBytes() != len(test.want) {
				t.Errorf("ReadBytes() = %d, want %d", ler.ReadBytes(), len(test.want))
			}
		})
	}
}

func TestLimitErrorWriter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		want    string
		wantErr bool
	}{
		{
			name:    "below limit",
			input:   "1234567890",
			limit:   100,
			want:    "1234567890",
			wantErr: false,
		},
		{
			name:    "above limit",
			input:   "1234567890",
			limit:   5,
			want:    "12345",
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			lw := newLimitErrorWriter(&buf, test.limit)

			_, err := lw.Write([]byte(test.input))
			if (err != nil) != test.wantErr {
				t.Errorf("Write() error = %v, wantErr %v", err, test.wantErr)
			}
			if buf.String() != test.want {
				t.Errorf("Write() wrote %q, want %q", buf.String(), test.want)
			}
		})
	}
}

func TestLimitWriterPassthrough(t *testing.T) {
	var buf bytes.Buffer
	if w := limitWriter(&buf, -1); w != &buf {
		t.Errorf("limitWriter() with negative limit should return the writer unchanged")
	}
}
