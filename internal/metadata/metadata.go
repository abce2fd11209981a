package metadata

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// AssumedBytesPerSecond is the byte rate used when an MP3 cannot be decoded:
// roughly a 192 kbps stream.
const AssumedBytesPerSecond = 24 * 1024

// AudioInfo describes a published audio file.
type AudioInfo struct {
	SizeBytes       int64
	DurationSeconds int
	// Estimated is set when the duration comes from the file size rather than
	// from decoding the frames.
	Estimated bool
}

// Probe stats the file at path and measures its duration. Decoding failures
// fall back to EstimateDuration; only a missing or unreadable file is an
// error.
func Probe(path string) (AudioInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return AudioInfo{}, err
	}
	if info.IsDir() {
		return AudioInfo{}, errors.New(path + " is a directory")
	}

	result := AudioInfo{SizeBytes: info.Size()}
	dur, err := computeMP3Duration(path)
	if err == nil && dur >= 1 {
		result.DurationSeconds = int(dur)
		return result, nil
	}

	result.DurationSeconds = EstimateDuration(info.Size())
	result.Estimated = true
	return result, nil
}

// EstimateDuration approximates the length of an MP3 of size bytes, never
// less than one second.
func EstimateDuration(size int64) int {
	seconds := int(size / AssumedBytesPerSecond)
	if seconds < 1 {
		return 1
	}
	return seconds
}

// Tags holds the ID3 fields used when importing loose files.
type Tags struct {
	Title  string
	Artist *string
	Album  *string
}

// ReadTags returns whatever tag metadata can be read from path. Files without
// tags yield a zero Tags value.
func ReadTags(path string) Tags {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return Tags{}
	}

	return Tags{
		Title:  strings.TrimSpace(meta.Title()),
		Artist: optionalString(meta.Artist()),
		Album:  optionalString(meta.Album()),
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func computeMP3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration().Seconds()
	}

	return total, nil
}
