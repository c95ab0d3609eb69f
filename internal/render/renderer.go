package render

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"reelpress/internal/caption"
	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/services"
	"reelpress/internal/storage"
)

// Request carries everything one preview render needs.
type Request struct {
	Fields   caption.Fields
	ImageURL string
	Run      storage.RunDir

	// Layout overrides the configured template when non-empty. Tests use it;
	// production leaves it empty.
	Layout string
}

// Renderer turns a caption plus source image into preview.png inside the run
// directory. Engine acquisition is retried; capture failures are not.
type Renderer struct {
	cfg     config.Render
	factory EngineFactory
	layout  string
	logger  *slog.Logger

	// engines bounds concurrent browser instances.
	engines chan struct{}

	sleep func(time.Duration)
}

// NewRenderer builds a renderer. The template is resolved once at
// construction so a bad template path fails fast.
func NewRenderer(cfg config.Render, templatePath string, factory EngineFactory, logger *slog.Logger) (*Renderer, error) {
	if factory == nil {
		return nil, fmt.Errorf("engine factory required")
	}
	layout, err := LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	max := cfg.MaxEngineInstances
	if max <= 0 {
		max = 2
	}
	return &Renderer{
		cfg:     cfg,
		factory: factory,
		layout:  layout,
		logger:  logger.With(logging.String(logging.FieldComponent, "render")),
		engines: make(chan struct{}, max),
		sleep:   time.Sleep,
	}, nil
}

// Render composes the document, acquires an engine, and captures the
// preview. It returns the preview path on success. Every error is tagged
// ErrRender.
func (r *Renderer) Render(ctx context.Context, req Request) (string, error) {
	layout := r.layout
	if req.Layout != "" {
		layout = req.Layout
	}
	doc := Compose(layout, req.Fields, req.ImageURL)

	composedPath := req.Run.ComposedDocumentPath()
	if err := os.WriteFile(composedPath, []byte(doc), 0o644); err != nil {
		return "", services.Wrap(services.ErrRender, "render", "compose", "write composed document", err)
	}

	select {
	case r.engines <- struct{}{}:
	case <-ctx.Done():
		return "", services.Wrap(services.ErrRender, "render", "acquire", "wait for engine slot", ctx.Err())
	}
	defer func() { <-r.engines }()

	engine, err := r.launchWithRetry(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			r.logger.Warn("engine close failed", logging.Error(cerr))
		}
	}()

	previewPath := req.Run.PreviewPath()
	docURL := fileURL(composedPath)
	if err := engine.Capture(ctx, docURL, previewPath); err != nil {
		return "", services.Wrap(services.ErrRender, "render", "capture", "capture preview", err)
	}

	r.logger.Info("preview captured",
		logging.String(logging.FieldRunDir, req.Run.Path),
		logging.String("preview", previewPath),
	)
	return previewPath, nil
}

func (r *Renderer) launchWithRetry(ctx context.Context) (Engine, error) {
	retries := r.cfg.LaunchRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := time.Duration(r.cfg.RetryBackoff) * time.Second
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		engine := r.factory()
		err := engine.Launch(ctx)
		if err == nil {
			return engine, nil
		}
		_ = engine.Close()
		lastErr = err
		r.logger.Warn("engine launch failed",
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		if attempt < retries {
			r.sleep(backoff)
		}
	}
	return nil, services.Wrap(services.ErrRender, "render", "launch",
		fmt.Sprintf("engine failed to start after %d attempts", retries), lastErr)
}

func fileURL(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
