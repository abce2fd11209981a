package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for input that is not a readable PCM WAV file.
var ErrInvalidWAV = errors.New("invalid wav data")

// DecodeWAV reads a PCM WAV stream and downmixes it to mono 16-bit.
func DecodeWAV(r io.ReadSeeker) (Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Buffer{}, ErrInvalidWAV
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if pcm == nil || pcm.Format == nil {
		return Buffer{}, fmt.Errorf("%w: missing format", ErrInvalidWAV)
	}

	depth := pcm.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	shift, err := depthShift(depth)
	if err != nil {
		return Buffer{}, err
	}

	channels := pcm.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	frames := len(pcm.Data) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sample := pcm.Data[i*channels+c]
			if depth == 8 {
				sample = (sample - 128) << 8
			} else {
				sample >>= shift
			}
			sum += sample
		}
		out[i] = saturate(int32(sum / channels))
	}

	return Buffer{SampleRate: pcm.Format.SampleRate, Samples: out}, nil
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, err
	}
	defer f.Close()
	return DecodeWAV(f)
}

// EncodeWAV writes b as a mono 16-bit PCM WAV stream.
func EncodeWAV(w io.WriteSeeker, b Buffer) error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("encode wav: invalid sample rate %d", b.SampleRate)
	}
	data := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: b.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(w, b.SampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WriteWAVFile writes b to path as a WAV file.
func WriteWAVFile(path string, b Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func depthShift(depth int) (int, error) {
	switch depth {
	case 8, 16:
		return 0, nil
	case 24:
		return 8, nil
	case 32:
		return 16, nil
	}
	return 0, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, depth)
}
