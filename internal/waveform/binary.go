// Package waveform reads and writes multichannel signal records and the
// JSON descriptors of the observation site.
package waveform

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// magic identifies a binary waveform record ("GWF" plus format version 1).
const magic uint32 = 0x31465747

// Header describes a binary waveform record: how many station traces follow,
// how many samples each trace holds, and the sampling frequency in Hz.
type Header struct {
	Stations  uint32
	Samples   uint32
	Frequency uint32
}

// maxRecordSamples caps header-declared sizes so a corrupt header cannot
// force a multi-gigabyte allocation.
const maxRecordSamples = 1 << 28

// Write serializes the header and the row-major [stations × samples] float32
// trace matrix in little-endian order.
func Write(w io.Writer, h Header, samples []float32) error {
	if int(h.Stations)*int(h.Samples) != len(samples) {
		return fmt.Errorf("header declares %d×%d samples, got %d", h.Stations, h.Samples, len(samples))
	}
	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return fmt.Errorf("failed to write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// Read parses a binary waveform record produced by Write.
func Read(r io.Reader) (Header, []float32, error) {
	var gotMagic uint32
	if err := binary.Read(r, binary.LittleEndian, &gotMagic); err != nil {
		return Header{}, nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if gotMagic != magic {
		return Header{}, nil, fmt.Errorf("bad magic 0x%08x, want 0x%08x", gotMagic, magic)
	}

	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Header{}, nil, fmt.Errorf("failed to read header: %w", err)
	}
	if h.Stations == 0 || h.Samples == 0 {
		return Header{}, nil, fmt.Errorf("empty record: %d stations, %d samples", h.Stations, h.Samples)
	}
	total := int(h.Stations) * int(h.Samples)
	if total > maxRecordSamples {
		return Header{}, nil, fmt.Errorf("record declares %d samples, above the %d limit", total, maxRecordSamples)
	}

	samples := make([]float32, total)
	if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
		return Header{}, nil, fmt.Errorf("failed to read %d samples: %w", total, err)
	}
	return h, samples, nil
}

// WriteFile writes a binary waveform record to path.
func WriteFile(path string, h Header, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create waveform file: %w", err)
	}
	if err := Write(f, h, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a binary waveform record from path.
func ReadFile(path string) (Header, []float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to open waveform file: %w", err)
	}
	defer f.Close()
	return Read(f)
}
