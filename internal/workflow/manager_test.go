package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"reelpress/internal/config"
	"reelpress/internal/history"
	"reelpress/internal/logging"
	"reelpress/internal/render"
	"reelpress/internal/services"
	"reelpress/internal/session"
	"reelpress/internal/storage"
	"reelpress/internal/testsupport"
	"reelpress/internal/transport"
)

type sentMessage struct {
	user     string
	text     string
	path     string
	keyboard transport.Keyboard
	id       transport.MessageID
}

type fakeBot struct {
	mu      sync.Mutex
	events  chan transport.Event
	texts   []sentMessage
	edits   []sentMessage
	photos  []sentMessage
	videos  []sentMessage
	answers []string
	nextID  int
	fileURL string
}

func newFakeBot() *fakeBot {
	return &fakeBot{events: make(chan transport.Event, 16), fileURL: "http://files.example/photo.jpg"}
}

func (f *fakeBot) Events() <-chan transport.Event { return f.events }

func (f *fakeBot) SendText(ctx context.Context, userID, text string, keyboard transport.Keyboard) (transport.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := transport.MessageID(fmt.Sprintf("msg-%d", f.nextID))
	f.texts = append(f.texts, sentMessage{user: userID, text: text, keyboard: keyboard, id: id})
	return id, nil
}

func (f *fakeBot) EditText(ctx context.Context, userID string, id transport.MessageID, text string, keyboard transport.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{user: userID, text: text, keyboard: keyboard, id: id})
	return nil
}

func (f *fakeBot) SendPhoto(ctx context.Context, userID, path, caption string, keyboard transport.Keyboard) (transport.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := transport.MessageID(fmt.Sprintf("msg-%d", f.nextID))
	f.photos = append(f.photos, sentMessage{user: userID, text: caption, path: path, keyboard: keyboard, id: id})
	return id, nil
}

func (f *fakeBot) SendVideo(ctx context.Context, userID, path, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos = append(f.videos, sentMessage{user: userID, text: caption, path: path})
	return nil
}

func (f *fakeBot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeBot) FileURL(ctx context.Context, fileRef string) (string, error) {
	return f.fileURL, nil
}

func (f *fakeBot) lastText() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return sentMessage{}
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeBot) lastEdit() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return sentMessage{}
	}
	return f.edits[len(f.edits)-1]
}

type fakeRenderer struct {
	err      error
	requests []render.Request
}

func (f *fakeRenderer) Render(ctx context.Context, req render.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	previewPath := req.Run.PreviewPath()
	if err := os.WriteFile(previewPath, []byte("png"), 0o644); err != nil {
		return "", err
	}
	return previewPath, nil
}

type fakeEncoder struct {
	err   error
	calls int
}

func (f *fakeEncoder) Encode(ctx context.Context, previewPath, audioPath, outDir string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	videoPath := filepath.Join(outDir, "video.mp4")
	if err := os.WriteFile(videoPath, []byte("mp4"), 0o644); err != nil {
		return "", err
	}
	return videoPath, nil
}

type fakeAssets struct{ root string }

func (f fakeAssets) URL(filePath string) (string, error) {
	rel, err := filepath.Rel(f.root, filePath)
	if err != nil {
		return "", err
	}
	return "http://127.0.0.1:8000/" + filepath.ToSlash(rel), nil
}

type fakeDownloader struct{ err error }

func (f fakeDownloader) Fetch(ctx context.Context, url, dest string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("jpeg"), 0o644)
}

type recordingNotifier struct {
	completed []string
	failed    []string
}

func (r *recordingNotifier) NotifyRunCompleted(ctx context.Context, title, videoPath string) error {
	r.completed = append(r.completed, title)
	return nil
}

func (r *recordingNotifier) NotifyRunFailed(ctx context.Context, err error, label string) error {
	r.failed = append(r.failed, label)
	return nil
}

func (r *recordingNotifier) TestNotification(ctx context.Context) error { return nil }

type harness struct {
	manager  *Manager
	bot      *fakeBot
	renderer *fakeRenderer
	encoder  *fakeEncoder
	notifier *recordingNotifier
	sessions *session.Store
	hist     *history.Store
	cfg      *config.Config
	audio    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAudioTracks("audio_I", "audio_II"))
	hist := testsupport.MustOpenHistory(t, cfg)

	bot := newFakeBot()
	renderer := &fakeRenderer{}
	encoder := &fakeEncoder{}
	notifier := &recordingNotifier{}
	sessions := session.NewStore()

	manager, err := NewManager(Deps{
		Config:     cfg,
		Transport:  bot,
		Sessions:   sessions,
		Allocator:  storage.NewAllocator(cfg.Paths.OutputDir),
		Renderer:   renderer,
		Encoder:    encoder,
		Assets:     fakeAssets{root: cfg.Paths.OutputDir},
		History:    hist,
		Notifier:   notifier,
		Downloader: fakeDownloader{},
		Logger:     logging.NewNop(),
		Now:        func() time.Time { return time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return &harness{
		manager:  manager,
		bot:      bot,
		renderer: renderer,
		encoder:  encoder,
		notifier: notifier,
		sessions: sessions,
		hist:     hist,
		cfg:      cfg,
		audio:    "audio_I",
	}
}

const testCaption = "Title : Morning Light\nContent : First coffee of the day.\nHashtags : #morning #coffee"

func (h *harness) advanceToAwaitingPhoto(t *testing.T, user string) {
	t.Helper()
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.MessageEvent{User: user, Text: "hi"})
	h.manager.dispatch(ctx, transport.CallbackEvent{User: user, ID: "cb1", Data: callbackCreateNew, Message: "msg-1"})
	h.manager.dispatch(ctx, transport.CallbackEvent{User: user, ID: "cb2", Data: h.audio, Message: "msg-1"})
	if got := h.sessions.Snapshot(user).State; got != session.StateAwaitingPhoto {
		t.Fatalf("state after audio selection = %s", got)
	}
}

func TestFirstContactShowsMainMenu(t *testing.T) {
	h := newHarness(t)
	h.manager.dispatch(context.Background(), transport.MessageEvent{User: "42", Text: "hello"})

	last := h.bot.lastText()
	if last.text != welcomeText {
		t.Fatalf("welcome text = %q", last.text)
	}
	if len(last.keyboard) != 2 {
		t.Fatalf("main menu keyboard rows = %d", len(last.keyboard))
	}
	if got := h.sessions.Snapshot("42").State; got != session.StateMenuShown {
		t.Fatalf("state = %s, want menu_shown", got)
	}
}

func TestSecondMessageDoesNotResendMenu(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.MessageEvent{User: "42", Text: "hello"})
	h.manager.dispatch(ctx, transport.MessageEvent{User: "42", Text: "hello again"})

	h.bot.mu.Lock()
	defer h.bot.mu.Unlock()
	if len(h.bot.texts) != 1 {
		t.Fatalf("menu sent %d times, want 1", len(h.bot.texts))
	}
}

func TestPhotoPipelineProducesPreview(t *testing.T) {
	h := newHarness(t)
	h.advanceToAwaitingPhoto(t, "42")

	h.manager.dispatch(context.Background(), transport.PhotoEvent{User: "42", FileRef: "file-1", Caption: testCaption})

	sess := h.sessions.Snapshot("42")
	if sess.State != session.StatePreviewReady {
		t.Fatalf("state = %s, want preview_ready", sess.State)
	}
	if sess.Pending == nil {
		t.Fatal("pending post not set")
	}
	if sess.Pending.Title != "Morning Light" {
		t.Fatalf("pending title = %q", sess.Pending.Title)
	}
	if sess.Pending.Date != "14 MAR 2026" {
		t.Fatalf("pending date = %q", sess.Pending.Date)
	}

	if _, err := os.Stat(sess.Pending.SourceImagePath); err != nil {
		t.Fatalf("source image missing: %v", err)
	}
	if _, err := os.Stat(sess.Pending.PreviewPath); err != nil {
		t.Fatalf("preview missing: %v", err)
	}
	if !strings.HasSuffix(filepath.Dir(sess.Pending.PreviewPath), filepath.Join("2026-03-14", "1_0905")) {
		t.Fatalf("run dir = %s", filepath.Dir(sess.Pending.PreviewPath))
	}

	activity, err := os.ReadFile(sess.Pending.Run.ActivityLogPath())
	if err != nil {
		t.Fatalf("activity log missing: %v", err)
	}
	if !strings.Contains(string(activity), "[✅ SUCCESS]") {
		t.Fatalf("activity log lacks success entries:\n%s", activity)
	}

	h.bot.mu.Lock()
	defer h.bot.mu.Unlock()
	if len(h.bot.photos) != 1 {
		t.Fatalf("previews sent = %d", len(h.bot.photos))
	}
	last := h.bot.texts[len(h.bot.texts)-1]
	if len(last.keyboard) != 1 || len(last.keyboard[0]) != 2 {
		t.Fatalf("confirm keyboard shape wrong: %+v", last.keyboard)
	}
	if len(h.renderer.requests) != 1 {
		t.Fatalf("render calls = %d", len(h.renderer.requests))
	}
	if !strings.HasPrefix(h.renderer.requests[0].ImageURL, "http://127.0.0.1:8000/") {
		t.Fatalf("image url = %s", h.renderer.requests[0].ImageURL)
	}
}

func TestPhotoWithBadCaptionKeepsAwaitingPhoto(t *testing.T) {
	h := newHarness(t)
	h.advanceToAwaitingPhoto(t, "42")

	h.manager.dispatch(context.Background(), transport.PhotoEvent{User: "42", FileRef: "file-1", Caption: "Title : only a title"})

	sess := h.sessions.Snapshot("42")
	if sess.State != session.StateAwaitingPhoto {
		t.Fatalf("state = %s, want awaiting_photo after format error", sess.State)
	}
	if !sess.HasAudio {
		t.Fatal("audio selection lost on format error")
	}
	last := h.bot.lastEdit()
	if !strings.Contains(last.text, "Caption format incorrect") {
		t.Fatalf("status edit = %q", last.text)
	}
	if len(h.notifier.failed) != 0 {
		t.Fatalf("format error must not page: %v", h.notifier.failed)
	}

	// A format error allocates no storage; retries must not burn run dirs.
	bucket := filepath.Join(h.cfg.Paths.OutputDir, "2026-03-14")
	if entries, err := os.ReadDir(bucket); err == nil && len(entries) > 0 {
		t.Fatalf("run directory allocated for invalid caption: %v", entries)
	}
}

func TestPhotoWithoutAudioPrompts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.MessageEvent{User: "42", Text: "hi"})

	h.manager.dispatch(ctx, transport.PhotoEvent{User: "42", FileRef: "file-1", Caption: testCaption})

	last := h.bot.lastText()
	if !strings.Contains(last.text, "select an audio track") {
		t.Fatalf("prompt = %q", last.text)
	}
	if len(h.renderer.requests) != 0 {
		t.Fatal("render must not run without audio")
	}
}

func TestRenderFailureReturnsToMenu(t *testing.T) {
	h := newHarness(t)
	h.advanceToAwaitingPhoto(t, "42")
	h.renderer.err = services.Wrap(services.ErrRender, "render", "launch", "engine failed to start after 3 attempts", errors.New("no browser"))

	h.manager.dispatch(context.Background(), transport.PhotoEvent{User: "42", FileRef: "file-1", Caption: testCaption})

	sess := h.sessions.Snapshot("42")
	if sess.State != session.StateMenuShown {
		t.Fatalf("state = %s, want menu_shown after render failure", sess.State)
	}
	if sess.Pending != nil {
		t.Fatal("pending post must be discarded")
	}
	if len(h.notifier.failed) != 1 {
		t.Fatalf("failure notifications = %d, want 1", len(h.notifier.failed))
	}
	found := false
	h.bot.mu.Lock()
	for _, edit := range h.bot.edits {
		if strings.Contains(edit.text, "Error rendering preview") {
			found = true
		}
	}
	h.bot.mu.Unlock()
	if !found {
		t.Fatal("user never saw the render error message")
	}
}

func TestConfirmDeliversVideoAndRecordsRun(t *testing.T) {
	h := newHarness(t)
	h.advanceToAwaitingPhoto(t, "42")
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.PhotoEvent{User: "42", FileRef: "file-1", Caption: testCaption})

	run := h.sessions.Snapshot("42").Pending.Run
	h.manager.dispatch(ctx, transport.CallbackEvent{User: "42", ID: "cb3", Data: callbackConfirm, Message: "msg-9"})

	sess := h.sessions.Snapshot("42")
	if sess.State != session.StateMenuShown {
		t.Fatalf("state = %s, want menu_shown after completion", sess.State)
	}
	if sess.Pending != nil {
		t.Fatal("pending post not cleared")
	}

	h.bot.mu.Lock()
	videos := len(h.bot.videos)
	h.bot.mu.Unlock()
	if videos != 1 {
		t.Fatalf("videos sent = %d", videos)
	}

	meta, err := storage.ReadMetadata(run)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Title != "Morning Light" || meta.VideoPath == "" || meta.CreatedAt == "" {
		t.Fatalf("metadata incomplete: %+v", meta)
	}

	runs, err := h.hist.Recent(ctx, "42", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(runs) != 1 || runs[0].Title != "Morning Light" {
		t.Fatalf("history runs = %+v", runs)
	}
	if len(h.notifier.completed) != 1 {
		t.Fatalf("completion notifications = %d", len(h.notifier.completed))
	}
}

func TestConfirmWithoutPendingAnswersError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.MessageEvent{User: "42", Text: "hi"})
	h.manager.dispatch(ctx, transport.CallbackEvent{User: "42", ID: "cb1", Data: callbackConfirm, Message: "msg-1"})

	if h.encoder.calls != 0 {
		t.Fatal("encoder must not run without a pending post")
	}
	h.bot.mu.Lock()
	defer h.bot.mu.Unlock()
	last := h.bot.answers[len(h.bot.answers)-1]
	if !strings.Contains(last, "Post data not found") {
		t.Fatalf("answer = %q", last)
	}
}

func TestEncodeFailureReturnsToMenu(t *testing.T) {
	h := newHarness(t)
	h.advanceToAwaitingPhoto(t, "42")
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.PhotoEvent{User: "42", FileRef: "file-1", Caption: testCaption})
	h.encoder.err = services.Wrap(services.ErrEncode, "encode", "ffmpeg", "encoder failed", errors.New("exit status 1"))

	h.manager.dispatch(ctx, transport.CallbackEvent{User: "42", ID: "cb3", Data: callbackConfirm, Message: "msg-9"})

	sess := h.sessions.Snapshot("42")
	if sess.State != session.StateMenuShown {
		t.Fatalf("state = %s, want menu_shown after encode failure", sess.State)
	}
	if len(h.notifier.failed) != 1 {
		t.Fatalf("failure notifications = %d", len(h.notifier.failed))
	}
	runs, err := h.hist.Recent(ctx, "42", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(runs) != 0 {
		t.Fatal("failed run must not be recorded in history")
	}
}

func TestCancelDeletesPreview(t *testing.T) {
	h := newHarness(t)
	h.advanceToAwaitingPhoto(t, "42")
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.PhotoEvent{User: "42", FileRef: "file-1", Caption: testCaption})

	pending := h.sessions.Snapshot("42").Pending
	h.manager.dispatch(ctx, transport.CallbackEvent{User: "42", ID: "cb3", Data: callbackCancel, Message: "msg-9"})

	if _, err := os.Stat(pending.PreviewPath); !os.IsNotExist(err) {
		t.Fatal("preview not deleted on cancel")
	}
	if _, err := os.Stat(pending.SourceImagePath); err != nil {
		t.Fatalf("source image must survive cancel: %v", err)
	}
	sess := h.sessions.Snapshot("42")
	if sess.State != session.StateMenuShown || sess.Pending != nil {
		t.Fatalf("session not reset: %+v", sess)
	}
	last := h.bot.lastEdit()
	if last.text != cancelledText {
		t.Fatalf("cancel message = %q", last.text)
	}
}

func TestHistoryViewListsRecentRuns(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.MessageEvent{User: "42", Text: "hi"})

	if err := h.hist.Record(ctx, &history.Run{
		UserID:    "42",
		Title:     "Morning Light",
		RunDir:    "/out/2026-03-14/1_0905",
		CreatedAt: time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	h.manager.dispatch(ctx, transport.CallbackEvent{User: "42", ID: "cb1", Data: callbackHistory, Message: "msg-1"})

	last := h.bot.lastEdit()
	if !strings.Contains(last.text, "Morning Light") || !strings.Contains(last.text, "2026-03-14") {
		t.Fatalf("history view = %q", last.text)
	}
}

func TestHistoryViewEmpty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.manager.dispatch(ctx, transport.MessageEvent{User: "42", Text: "hi"})
	h.manager.dispatch(ctx, transport.CallbackEvent{User: "42", ID: "cb1", Data: callbackHistory, Message: "msg-1"})

	last := h.bot.lastEdit()
	if !strings.Contains(last.text, "No history found") {
		t.Fatalf("history view = %q", last.text)
	}
}

func TestRunConsumesChannelUntilClose(t *testing.T) {
	h := newHarness(t)
	h.bot.events <- transport.MessageEvent{User: "42", Text: "hi"}
	close(h.bot.events)

	done := make(chan error, 1)
	go func() { done <- h.manager.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after channel close")
	}
	if got := h.sessions.Snapshot("42").State; got != session.StateMenuShown {
		t.Fatalf("state = %s", got)
	}
}

func TestPreviewCaptionTruncatesOnRuneBoundary(t *testing.T) {
	content := "a" + strings.Repeat("é", 60)
	got := previewCaption("T", content, "#x")
	if !utf8.ValidString(got) {
		t.Fatalf("caption is not valid UTF-8: %q", got)
	}
	if !strings.Contains(got, "a"+strings.Repeat("é", 49)+"...") {
		t.Fatalf("unexpected truncation: %q", got)
	}

	short := previewCaption("T", "brief", "#x")
	if !strings.Contains(short, "Content: brief...") {
		t.Fatalf("short content altered: %q", short)
	}
}
