package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Tools wraps the ffmpeg and ffprobe binaries.
// Calls block on a subprocess and belong in workers, not request handlers.
type Tools struct {
	ffmpegPath  string
	ffprobePath string
	workDir     string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewTools creates a media toolset. Empty paths resolve from PATH.
func NewTools(ffmpegPath, ffprobePath string, logger *zap.Logger) *Tools {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Tools{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		workDir:     os.TempDir(),
		timeout:     2 * time.Minute,
		logger:      logger,
	}
}

// AssertReady checks both binaries are installed
func (t *Tools) AssertReady() error {
	for _, bin := range []string{t.ffmpegPath, t.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	return nil
}

// WriteTemp stores video bytes in a temp file for the binaries to read
func (t *Tools) WriteTemp(data []byte, suffix string) (string, func(), error) {
	if suffix != "" && !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	f, err := os.CreateTemp(t.workDir, "shot-*"+suffix)
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}

// Duration returns the container duration in seconds
func (t *Tools) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w; out=%s", err, string(out))
	}

	raw := strings.TrimSpace(string(out))
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparsable duration %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("video has no duration")
	}
	return d, nil
}

// FrameAt decodes a single frame at the given second as PNG bytes
func (t *Tools) FrameAt(ctx context.Context, path string, seconds float64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(seconds, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame at %.3fs failed: %w; out=%s", seconds, err, stderr.String())
	}
	if stdout.Len() == 0 {
		if t.logger != nil {
			t.logger.Warn("⚠️ ffmpeg produced no frame",
				zap.Float64("timestamp", seconds),
			)
		}
		return nil, fmt.Errorf("ffmpeg produced no frame at %.3fs", seconds)
	}
	return stdout.Bytes(), nil
}
