package analysis

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	pkgai "github.com/johnquangdev/shot-analyzer/pkg/ai"
	"github.com/johnquangdev/shot-analyzer/pkg/config"
)

type fakeGenerator struct {
	mu         sync.Mutex
	credential bool
	reply      func(parts []pkgai.Part) (string, error)
	calls      int
	lastParts  []pkgai.Part
}

func (f *fakeGenerator) HasCredential() bool { return f.credential }

func (f *fakeGenerator) GenerateContent(_ context.Context, parts []pkgai.Part) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastParts = parts
	if f.reply == nil {
		return "", errors.New("no reply configured")
	}
	return f.reply(parts)
}

func staticReply(s string) func([]pkgai.Part) (string, error) {
	return func([]pkgai.Part) (string, error) { return s, nil }
}

type fakeSource struct {
	mu    sync.Mutex
	fails map[string]error
	calls []string
}

func (f *fakeSource) Download(_ context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uri)
	if err, ok := f.fails[uri]; ok {
		return nil, err
	}
	return []byte("video:" + uri), nil
}

func (f *fakeSource) downloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSampler struct {
	duration float64
	durErr   error
	frameErr map[float64]error
	frame    []byte
}

func (f *fakeSampler) WriteTemp(data []byte, suffix string) (string, func(), error) {
	return "/tmp/fake" + suffix, func() {}, nil
}

func (f *fakeSampler) Duration(context.Context, string) (float64, error) {
	return f.duration, f.durErr
}

func (f *fakeSampler) FrameAt(_ context.Context, _ string, ts float64) ([]byte, error) {
	if err, ok := f.frameErr[ts]; ok {
		return nil, err
	}
	return f.frame, nil
}

func pngFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		Workers:            1,
		AngleWorkers:       4,
		QueueSize:          8,
		KeyframeCount:      12,
		EvidenceFrames:     3,
		BoundaryFrames:     16,
		FrameHeight:        36,
		JPEGQuality:        80,
		MinSampleInterval:  0.1,
		MaxSampleDuration:  30,
		BoundaryConfidence: 0.5,
		RejectConfidence:   0.9,
	}
}
