package analysis

import (
	"context"

	pkgai "github.com/johnquangdev/shot-analyzer/pkg/ai"
)

// Generator is the generative model capability shared by the validator,
// the boundary detector and the rater. It is built once per process.
type Generator interface {
	// HasCredential reports up front whether calls can succeed
	HasCredential() bool
	GenerateContent(ctx context.Context, parts []pkgai.Part) (string, error)
}

// VideoSource reads raw video bytes by reference
type VideoSource interface {
	Download(ctx context.Context, uri string) ([]byte, error)
}

// FrameSampler decodes single frames from a local video file
type FrameSampler interface {
	WriteTemp(data []byte, suffix string) (string, func(), error)
	Duration(ctx context.Context, path string) (float64, error)
	FrameAt(ctx context.Context, path string, seconds float64) ([]byte, error)
}
