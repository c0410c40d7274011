package analysis

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/johnquangdev/shot-analyzer/pkg/config"
)

const (
	MinKeyframes = 10
	MaxKeyframes = 30

	// minSampleDuration is the shortest window sampled even for very short clips
	minSampleDuration = 0.5
)

// Frame is one re-encoded still ready to be stored as a keyframe
type Frame struct {
	Index       int
	Timestamp   float64
	MimeType    string
	Image       []byte
	Description string
}

// KeyframeExtractor samples evenly spaced frames from a video
type KeyframeExtractor struct {
	source  VideoSource
	sampler FrameSampler
	cfg     config.PipelineConfig
	logger  *zap.Logger
}

// NewKeyframeExtractor creates a keyframe extractor
func NewKeyframeExtractor(source VideoSource, sampler FrameSampler, cfg config.PipelineConfig, logger *zap.Logger) *KeyframeExtractor {
	return &KeyframeExtractor{source: source, sampler: sampler, cfg: cfg, logger: logger}
}

// ClampFrameCount bounds a requested keyframe count to [10,30]
func ClampFrameCount(n int) int {
	if n < MinKeyframes {
		return MinKeyframes
	}
	if n > MaxKeyframes {
		return MaxKeyframes
	}
	return n
}

// SampleTimestamps spreads count samples uniformly over the effective
// duration, excluding both ends. The effective duration is the video
// duration bounded to [0.5, maxDuration]. Fewer samples are returned when
// the window cannot fit count samples minInterval apart.
func SampleTimestamps(duration float64, count int, minInterval, maxDuration float64) []float64 {
	if count <= 0 {
		return nil
	}
	if maxDuration <= 0 {
		maxDuration = 30
	}
	effective := math.Max(minSampleDuration, math.Min(duration, maxDuration))

	n := count
	if minInterval > 0 {
		if fit := int(math.Floor(effective / minInterval)); fit < n {
			n = fit
		}
	}
	if n < 1 {
		n = 1
	}

	interval := effective / float64(n+1)
	timestamps := make([]float64, n)
	for i := range timestamps {
		timestamps[i] = math.Round(float64(i+1)*interval*1000) / 1000
	}
	return timestamps
}

// Extract downloads a video and returns up to count keyframes in
// ascending timestamp order. count is clamped to [10,30].
func (e *KeyframeExtractor) Extract(ctx context.Context, uri string, count int) ([]Frame, error) {
	return e.sample(ctx, uri, ClampFrameCount(count))
}

// Evidence samples a handful of frames for content validation
func (e *KeyframeExtractor) Evidence(ctx context.Context, uri string) ([]Frame, error) {
	n := e.cfg.EvidenceFrames
	if n <= 0 {
		n = 3
	}
	return e.sample(ctx, uri, n)
}

func (e *KeyframeExtractor) sample(ctx context.Context, uri string, count int) ([]Frame, error) {
	data, err := e.source.Download(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}

	path, cleanup, err := e.sampler.WriteTemp(data, filepath.Ext(uri))
	if err != nil {
		return nil, err
	}
	defer cleanup()

	duration, err := e.sampler.Duration(ctx, path)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("⚠️ Could not read video duration, sampling the maximum window",
				zap.String("uri", uri),
				zap.Error(err),
			)
		}
		duration = e.cfg.MaxSampleDuration
	}

	timestamps := SampleTimestamps(duration, count, e.cfg.MinSampleInterval, e.cfg.MaxSampleDuration)
	window := math.Max(minSampleDuration, math.Min(duration, e.cfg.MaxSampleDuration))

	frames := make([]Frame, 0, len(timestamps))
	var lastErr error
	for _, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := e.sampler.FrameAt(ctx, path, ts)
		if err != nil {
			lastErr = err
			if e.logger != nil {
				e.logger.Warn("⚠️ Skipping undecodable frame",
					zap.String("uri", uri),
					zap.Float64("timestamp", ts),
					zap.Error(err),
				)
			}
			continue
		}

		encoded, err := reencode(raw, e.cfg.FrameHeight, e.cfg.JPEGQuality)
		if err != nil {
			lastErr = err
			continue
		}

		frames = append(frames, Frame{
			Index:       len(frames),
			Timestamp:   ts,
			MimeType:    "image/jpeg",
			Image:       encoded,
			Description: phaseLabel(ts, window),
		})
	}

	if len(frames) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no sample timestamps")
		}
		return nil, fmt.Errorf("no frame could be extracted: %w", lastErr)
	}
	return frames, nil
}

// reencode decodes any registered image format, scales it to the target
// height keeping the aspect ratio and encodes it as JPEG
func reencode(raw []byte, height, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	img := src
	b := src.Bounds()
	if height > 0 && b.Dy() > 0 && b.Dy() != height {
		width := int(math.Round(float64(b.Dx()) * float64(height) / float64(b.Dy())))
		if width < 1 {
			width = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// phaseLabel names the part of the shot a timestamp most likely shows
func phaseLabel(ts, window float64) string {
	progress := 0.0
	if window > 0 {
		progress = ts / window * 100
	}
	switch {
	case progress < 20:
		return fmt.Sprintf("Preparación inicial (%.1fs)", ts)
	case progress < 40:
		return fmt.Sprintf("Carga del tiro (%.1fs)", ts)
	case progress < 60:
		return fmt.Sprintf("Ascenso del balón (%.1fs)", ts)
	case progress < 80:
		return fmt.Sprintf("Set point / Liberación (%.1fs)", ts)
	default:
		return fmt.Sprintf("Follow-through / Aterrizaje (%.1fs)", ts)
	}
}
