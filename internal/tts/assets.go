package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Asset is a model file that is fetched on first use when absent.
type Asset struct {
	Path string
	URL  string
}

// KokoroAssets returns the model and voice files for the Kokoro ONNX release
// stored under dir.
func KokoroAssets(dir, baseURL string) []Asset {
	baseURL = strings.TrimRight(baseURL, "/") + "/"
	names := []string{"kokoro-v1.0.onnx", "voices-v1.0.bin"}
	assets := make([]Asset, 0, len(names))
	for _, name := range names {
		assets = append(assets, Asset{
			Path: filepath.Join(dir, name),
			URL:  baseURL + name,
		})
	}
	return assets
}

// EnsureAssets downloads every asset whose file does not exist yet.
func EnsureAssets(ctx context.Context, client *http.Client, assets []Asset, logger *log.Logger) error {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}

	for _, asset := range assets {
		if _, err := os.Stat(asset.Path); err == nil {
			logger.Printf("%s already exists", asset.Path)
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		logger.Printf("downloading %s", asset.URL)
		n, err := download(ctx, client, asset)
		if err != nil {
			return fmt.Errorf("download %s: %w", filepath.Base(asset.Path), err)
		}
		logger.Printf("downloaded %s (%s)", asset.Path, humanize.Bytes(uint64(n)))
	}
	return nil
}

func download(ctx context.Context, client *http.Client, asset Asset) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(asset.Path), 0o755); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("HTTP %d %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	tmpPath := asset.Path + ".download"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return 0, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return 0, closeErr
	}
	if n <= 0 {
		_ = os.Remove(tmpPath)
		return 0, errors.New("empty payload")
	}

	if err := os.Rename(tmpPath, asset.Path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	return n, nil
}
