package render

import "context"

// Engine is one rasterization instance. Launch starts the backing browser
// process, Capture screenshots the post element from a composed document,
// and Close tears the instance down. Instances are single-use: the renderer
// launches, captures once, and closes.
type Engine interface {
	Launch(ctx context.Context) error
	Capture(ctx context.Context, documentURL, outPath string) error
	Close() error
}

// EngineFactory produces fresh engine instances. The renderer calls it once
// per capture so a crashed browser never poisons later runs.
type EngineFactory func() Engine
