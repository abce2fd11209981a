package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not installed.
	ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH")
	// ErrConversionFailed is returned when an ffmpeg run fails.
	ErrConversionFailed = errors.New("audio conversion failed")
	// ErrAssetMissing is returned when the intro music cannot be read.
	ErrAssetMissing = errors.New("audio asset missing or unreadable")
)

// Transcoder shells out to ffmpeg for decoding arbitrary inputs and for MP3
// encoding.
type Transcoder struct {
	ffmpegPath string
}

// NewTranscoder locates ffmpeg on PATH.
func NewTranscoder() (*Transcoder, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrFFmpegNotFound
	}
	return &Transcoder{ffmpegPath: path}, nil
}

// NewTranscoderWithPath creates a transcoder with a specific ffmpeg binary.
func NewTranscoderWithPath(path string) *Transcoder {
	return &Transcoder{ffmpegPath: path}
}

// Decode converts any audio file ffmpeg understands into mono 16-bit PCM at
// sampleRate.
func (t *Transcoder) Decode(ctx context.Context, path string, sampleRate int) (Buffer, error) {
	args := []string{
		"-i", path,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"-loglevel", "error",
		"pipe:1",
	}
	out, err := t.run(ctx, args)
	if err != nil {
		return Buffer{}, err
	}
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}
	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2:]))
	}
	return Buffer{SampleRate: sampleRate, Samples: samples}, nil
}

// EncodeMP3 writes buf to path as a constant bitrate MP3.
func (t *Transcoder) EncodeMP3(ctx context.Context, buf Buffer, path string, bitrateKbps int) error {
	if buf.Len() == 0 {
		return errors.New("refusing to encode empty audio")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".encode-*.wav")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeWAV(tmp, buf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	args := []string{
		"-y",
		"-f", "wav",
		"-i", tmp.Name(),
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-loglevel", "error",
		"-f", "mp3",
		path,
	}
	_, err = t.run(ctx, args)
	return err
}

func (t *Transcoder) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrConversionFailed, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Decoder converts an audio file to PCM at a given rate.
type Decoder interface {
	Decode(ctx context.Context, path string, sampleRate int) (Buffer, error)
}

// LoadAsset reads the intro music. WAV files at the target rate are decoded
// in-process; anything else goes through dec.
func LoadAsset(ctx context.Context, path string, sampleRate int, dec Decoder) (Buffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: %v", ErrAssetMissing, err)
	}
	if info.IsDir() {
		return Buffer{}, fmt.Errorf("%w: %s is a directory", ErrAssetMissing, path)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		buf, err := ReadWAVFile(path)
		if err == nil && buf.SampleRate == sampleRate {
			return buf, nil
		}
		if err != nil && dec == nil {
			return Buffer{}, fmt.Errorf("%w: %v", ErrAssetMissing, err)
		}
	}

	if dec == nil {
		return Buffer{}, fmt.Errorf("%w: no decoder for %s at %d Hz", ErrAssetMissing, path, sampleRate)
	}
	buf, err := dec.Decode(ctx, path, sampleRate)
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: %v", ErrAssetMissing, err)
	}
	if buf.Len() == 0 {
		return Buffer{}, fmt.Errorf("%w: %s decoded to no audio", ErrAssetMissing, path)
	}
	return buf, nil
}
