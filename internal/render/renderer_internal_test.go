package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelpress/internal/caption"
	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/services"
	"reelpress/internal/storage"
)

type fakeEngine struct {
	launchErr  error
	captureErr error
	onCapture  func(ctx context.Context, documentURL, outPath string) error
	closed     bool
}

func (f *fakeEngine) Launch(context.Context) error { return f.launchErr }

func (f *fakeEngine) Capture(ctx context.Context, documentURL, outPath string) error {
	if f.captureErr != nil {
		return f.captureErr
	}
	if f.onCapture != nil {
		return f.onCapture(ctx, documentURL, outPath)
	}
	return os.WriteFile(outPath, []byte("png"), 0o644)
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func testRequest(t *testing.T) Request {
	t.Helper()
	return Request{
		Fields: caption.Fields{
			Title:    "Morning Light",
			Content:  "First coffee.",
			Hashtags: "#morning",
			Date:     "14 MAR 2026",
		},
		ImageURL: "http://127.0.0.1:8000/2026-03-14/1_0905/original.jpg",
		Run:      storage.RunDir{Path: t.TempDir(), Date: "2026-03-14", Sequence: 1},
	}
}

func newTestRenderer(t *testing.T, cfg config.Render, factory EngineFactory) (*Renderer, *[]time.Duration) {
	t.Helper()
	r, err := NewRenderer(cfg, "", factory, logging.NewNop())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }
	return r, &slept
}

func TestRenderWritesComposedDocumentAndPreview(t *testing.T) {
	engine := &fakeEngine{}
	r, _ := newTestRenderer(t, config.Render{}, func() Engine { return engine })

	req := testRequest(t)
	previewPath, err := r.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if previewPath != req.Run.PreviewPath() {
		t.Fatalf("preview path = %s, want %s", previewPath, req.Run.PreviewPath())
	}
	if _, err := os.Stat(previewPath); err != nil {
		t.Fatalf("preview missing: %v", err)
	}
	composed, err := os.ReadFile(req.Run.ComposedDocumentPath())
	if err != nil {
		t.Fatalf("composed document missing: %v", err)
	}
	if len(composed) == 0 {
		t.Fatal("composed document is empty")
	}
	if !engine.closed {
		t.Fatal("engine not closed after successful capture")
	}
}

func TestLaunchRetriesThenFails(t *testing.T) {
	attempts := 0
	factory := func() Engine {
		attempts++
		return &fakeEngine{launchErr: errors.New("no browser")}
	}
	r, slept := newTestRenderer(t, config.Render{LaunchRetries: 3, RetryBackoff: 2}, factory)

	_, err := r.Render(context.Background(), testRequest(t))
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("error = %v, want ErrRender", err)
	}
	if attempts != 3 {
		t.Fatalf("launch attempts = %d, want 3", attempts)
	}
	var total time.Duration
	for _, d := range *slept {
		total += d
	}
	if len(*slept) != 2 || total != 4*time.Second {
		t.Fatalf("backoff = %v, want two 2s sleeps", *slept)
	}
}

func TestLaunchRecoversOnLaterAttempt(t *testing.T) {
	attempts := 0
	factory := func() Engine {
		attempts++
		if attempts < 3 {
			return &fakeEngine{launchErr: errors.New("flaky")}
		}
		return &fakeEngine{}
	}
	r, slept := newTestRenderer(t, config.Render{LaunchRetries: 3, RetryBackoff: 2}, factory)

	if _, err := r.Render(context.Background(), testRequest(t)); err != nil {
		t.Fatalf("render: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("launch attempts = %d, want 3", attempts)
	}
	if len(*slept) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(*slept))
	}
}

func TestCaptureFailureIsNotRetried(t *testing.T) {
	var factoryCalls int
	engine := &fakeEngine{captureErr: errors.New("tab crashed")}
	factory := func() Engine {
		factoryCalls++
		return engine
	}
	r, slept := newTestRenderer(t, config.Render{}, factory)

	_, err := r.Render(context.Background(), testRequest(t))
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("error = %v, want ErrRender", err)
	}
	if factoryCalls != 1 {
		t.Fatalf("factory calls = %d, capture failures must not retry", factoryCalls)
	}
	if len(*slept) != 0 {
		t.Fatalf("unexpected backoff sleeps: %v", *slept)
	}
	if !engine.closed {
		t.Fatal("engine not closed after capture failure")
	}
}

func TestEngineInstancesAreBounded(t *testing.T) {
	var active, peak int32
	release := make(chan struct{})
	factory := func() Engine {
		return &fakeEngine{onCapture: func(ctx context.Context, documentURL, outPath string) error {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&active, -1)
			return os.WriteFile(outPath, []byte("png"), 0o644)
		}}
	}
	r, _ := newTestRenderer(t, config.Render{MaxEngineInstances: 1}, factory)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Render(context.Background(), testRequest(t)); err != nil {
				t.Errorf("render: %v", err)
			}
		}()
	}
	go func() {
		for i := 0; i < 3; i++ {
			time.Sleep(20 * time.Millisecond)
			release <- struct{}{}
		}
	}()
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got != 1 {
		t.Fatalf("peak concurrent engines = %d, want 1", got)
	}
}

func TestComposedDocumentURLIsFileScheme(t *testing.T) {
	var captured string
	engine := &fakeEngine{onCapture: func(ctx context.Context, documentURL, outPath string) error {
		captured = documentURL
		return os.WriteFile(outPath, []byte("png"), 0o644)
	}}
	r, _ := newTestRenderer(t, config.Render{}, func() Engine { return engine })

	req := testRequest(t)
	if _, err := r.Render(context.Background(), req); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "file://" + filepath.ToSlash(req.Run.ComposedDocumentPath())
	if captured != want {
		t.Fatalf("document url = %s, want %s", captured, want)
	}
}
