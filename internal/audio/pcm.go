package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrSampleRateMismatch is returned when buffers with different sample rates
// are combined.
var ErrSampleRateMismatch = errors.New("sample rate mismatch")

// Buffer is a mono 16-bit PCM buffer.
type Buffer struct {
	SampleRate int
	Samples    []int16
}

// Len returns the number of samples in the buffer.
func (b Buffer) Len() int {
	return len(b.Samples)
}

// DurationMS returns the buffer length in whole milliseconds.
func (b Buffer) DurationMS() int {
	if b.SampleRate <= 0 {
		return 0
	}
	return int(int64(len(b.Samples)) * 1000 / int64(b.SampleRate))
}

// Slice returns the samples between startMS and endMS, clipped to the buffer.
// The returned buffer does not share memory with b.
func (b Buffer) Slice(startMS, endMS int) Buffer {
	start := clampIndex(samplesFor(b.SampleRate, startMS), len(b.Samples))
	end := clampIndex(samplesFor(b.SampleRate, endMS), len(b.Samples))
	if end < start {
		end = start
	}
	out := make([]int16, end-start)
	copy(out, b.Samples[start:end])
	return Buffer{SampleRate: b.SampleRate, Samples: out}
}

// From returns everything from startMS to the end of the buffer.
func (b Buffer) From(startMS int) Buffer {
	start := clampIndex(samplesFor(b.SampleRate, startMS), len(b.Samples))
	out := make([]int16, len(b.Samples)-start)
	copy(out, b.Samples[start:])
	return Buffer{SampleRate: b.SampleRate, Samples: out}
}

// Silence returns ms milliseconds of digital silence.
func Silence(sampleRate, ms int) Buffer {
	if ms < 0 {
		ms = 0
	}
	return Buffer{SampleRate: sampleRate, Samples: make([]int16, samplesFor(sampleRate, ms))}
}

// GainFactor converts a decibel adjustment to a linear amplitude factor.
func GainFactor(db float64) float64 {
	return math.Pow(10, db/20)
}

// Gain scales every sample by db decibels in the amplitude domain.
func Gain(b Buffer, db float64) Buffer {
	factor := GainFactor(db)
	out := make([]int16, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = saturate(int32(math.Round(float64(s) * factor)))
	}
	return Buffer{SampleRate: b.SampleRate, Samples: out}
}

// Overlay mixes over onto base starting offsetMS into base. The result is as
// long as the longer of the two spans: when over runs past the end of base,
// base contributes silence and the output grows to fit. Sums outside the
// int16 range are hard clipped.
func Overlay(base, over Buffer, offsetMS int) (Buffer, error) {
	if base.SampleRate != over.SampleRate {
		return Buffer{}, fmt.Errorf("%w: overlay %d Hz onto %d Hz", ErrSampleRateMismatch, over.SampleRate, base.SampleRate)
	}
	if offsetMS < 0 {
		offsetMS = 0
	}
	offset := samplesFor(base.SampleRate, offsetMS)
	length := len(base.Samples)
	if end := offset + len(over.Samples); end > length {
		length = end
	}

	out := make([]int16, length)
	copy(out, base.Samples)
	for i, s := range over.Samples {
		j := offset + i
		out[j] = saturate(int32(out[j]) + int32(s))
	}
	return Buffer{SampleRate: base.SampleRate, Samples: out}, nil
}

// Concat joins buffers end to end. All buffers must share a sample rate;
// empty buffers with a zero rate are skipped.
func Concat(parts ...Buffer) (Buffer, error) {
	rate := 0
	total := 0
	for _, p := range parts {
		if p.SampleRate == 0 && len(p.Samples) == 0 {
			continue
		}
		if rate == 0 {
			rate = p.SampleRate
		} else if p.SampleRate != rate {
			return Buffer{}, fmt.Errorf("%w: concat %d Hz after %d Hz", ErrSampleRateMismatch, p.SampleRate, rate)
		}
		total += len(p.Samples)
	}

	out := make([]int16, 0, total)
	for _, p := range parts {
		out = append(out, p.Samples...)
	}
	return Buffer{SampleRate: rate, Samples: out}, nil
}

func samplesFor(sampleRate, ms int) int {
	if ms <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(int64(ms) * int64(sampleRate) / 1000)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func saturate(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
