package audiofile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f64"
)

// wavFmt is the common part of a fmt chunk.
type wavFmt struct {
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// wavExtension follows wavFmt when the format is WAVE_FORMAT_EXTENSIBLE.
type wavExtension struct {
	Size        uint16
	ValidBits   uint16
	ChannelMask uint32
	SubFormat   [16]byte
}

// sampleDecoder converts one little-endian sample to a float in [-1, 1].
type sampleDecoder func([]byte) float64

func loadWAV(path string) ([]float64, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s: not a WAV file", ErrInvalidAudio, path)
	}

	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)

	format := decoder.WavAudioFormat
	if format == wavFormatExtensible {
		format, err = extensibleSubFormat(data)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
	}

	decode := wavSampleDecoder(format, bitDepth)
	if decode == nil {
		return nil, 0, fmt.Errorf("%w: %s: WAV format %#04x with %d-bit samples",
			ErrUnsupportedFormat, path, format, bitDepth)
	}

	if err := decoder.FwdToPCM(); err != nil || decoder.PCMChunk == nil {
		return nil, 0, fmt.Errorf("%w: %s: no data chunk", ErrInvalidAudio, path)
	}
	raw, err := io.ReadAll(decoder.PCMChunk)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrInvalidAudio, path, err)
	}

	return downmixWAV(raw, channels, bitDepth/bitsPerByte, decode), int(decoder.SampleRate), nil
}

// downmixWAV averages interleaved frames across channels. A trailing partial
// frame is dropped.
func downmixWAV(raw []byte, channels, width int, decode sampleDecoder) []float64 {
	stride := channels * width
	mono := make([]float64, len(raw)/stride)
	for i := range mono {
		frame := raw[i*stride : (i+1)*stride]
		var sum float64
		for off := 0; off < stride; off += width {
			sum += decode(frame[off : off+width])
		}
		mono[i] = sum
	}
	if channels > monoChannels {
		f64.Scale(mono, mono, 1/float64(channels))
	}
	return mono
}

// extensibleSubFormat returns the format tag carried in the SubFormat GUID of
// a WAVE_FORMAT_EXTENSIBLE fmt chunk.
func extensibleSubFormat(data []byte) (uint16, error) {
	p := riff.New(bytes.NewReader(data))
	if err := p.ParseHeaders(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}

	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("%w: fmt chunk not found: %w", ErrInvalidAudio, err)
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		if ch.Size < wavExtensibleFmtSize {
			return 0, fmt.Errorf("%w: extensible fmt chunk has %d bytes", ErrInvalidAudio, ch.Size)
		}

		var (
			hdr wavFmt
			ext wavExtension
		)
		if err := ch.ReadLE(&hdr); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
		}
		if err := ch.ReadLE(&ext); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
		}

		sub := ext.SubFormat
		if [12]byte(sub[4:]) != ksDataFormatSuffix || sub[2] != 0 || sub[3] != 0 {
			return 0, fmt.Errorf("%w: extensible subformat %x", ErrUnsupportedFormat, sub)
		}
		return binary.LittleEndian.Uint16(sub[:2]), nil
	}
}

// wavSampleDecoder returns nil for combinations that cannot be decoded.
func wavSampleDecoder(format uint16, bitDepth int) sampleDecoder {
	switch format {
	case wavFormatPCM:
		switch bitDepth {
		case bitsPerSample8:
			return func(b []byte) float64 { return (float64(b[0]) - uint8Midpoint) / uint8Midpoint }
		case bitsPerSample16:
			return func(b []byte) float64 { return float64(int16(binary.LittleEndian.Uint16(b))) / maxInt16 }
		case bitsPerSample24:
			return func(b []byte) float64 { return float64(audio.Int24LETo32(b)) / maxInt24 }
		case bitsPerSample32:
			return func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) / maxInt32 }
		}
	case wavFormatFloat:
		switch bitDepth {
		case bitsPerSample32:
			return func(b []byte) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) }
		case bitsPerSample64:
			return func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
		}
	}
	return nil
}
