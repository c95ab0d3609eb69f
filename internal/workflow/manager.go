package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelpress/internal/config"
	"reelpress/internal/history"
	"reelpress/internal/logging"
	"reelpress/internal/notifications"
	"reelpress/internal/render"
	"reelpress/internal/services"
	"reelpress/internal/session"
	"reelpress/internal/storage"
	"reelpress/internal/transport"
)

// Renderer produces the preview image for a pending post.
type Renderer interface {
	Render(ctx context.Context, req render.Request) (string, error)
}

// Encoder produces the final video from a preview and an audio track.
type Encoder interface {
	Encode(ctx context.Context, previewPath, audioPath, outDir string) (string, error)
}

// AssetResolver maps a file under the output root to the URL the
// rasterization engine fetches it from.
type AssetResolver interface {
	URL(filePath string) (string, error)
}

// Downloader pulls a transport file URL to a local path.
type Downloader interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Deps wires the manager's collaborators. Transport, Sessions, Allocator,
// Renderer, Encoder, Assets and Downloader are required.
type Deps struct {
	Config     *config.Config
	Transport  transport.Transport
	Sessions   *session.Store
	Allocator  *storage.Allocator
	Renderer   Renderer
	Encoder    Encoder
	Assets     AssetResolver
	History    *history.Store
	Notifier   notifications.Service
	Downloader Downloader
	Logger     *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Manager consumes transport events and drives each user's session through
// the production workflow. Events are handled one goroutine per event;
// per-user ordering comes from the session store's per-key locks.
type Manager struct {
	cfg        *config.Config
	bot        transport.Transport
	sessions   *session.Store
	allocator  *storage.Allocator
	renderer   Renderer
	encoder    Encoder
	assets     AssetResolver
	hist       *history.Store
	notifier   notifications.Service
	downloader Downloader
	logger     *slog.Logger
	now        func() time.Time

	wg sync.WaitGroup
}

// NewManager constructs a workflow manager.
func NewManager(deps Deps) (*Manager, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.New("config required")
	case deps.Transport == nil:
		return nil, errors.New("transport required")
	case deps.Sessions == nil:
		return nil, errors.New("session store required")
	case deps.Allocator == nil:
		return nil, errors.New("storage allocator required")
	case deps.Renderer == nil:
		return nil, errors.New("renderer required")
	case deps.Encoder == nil:
		return nil, errors.New("encoder required")
	case deps.Assets == nil:
		return nil, errors.New("asset resolver required")
	case deps.Downloader == nil:
		return nil, errors.New("downloader required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(deps.Config)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		cfg:        deps.Config,
		bot:        deps.Transport,
		sessions:   deps.Sessions,
		allocator:  deps.Allocator,
		renderer:   deps.Renderer,
		encoder:    deps.Encoder,
		assets:     deps.Assets,
		hist:       deps.History,
		notifier:   notifier,
		downloader: deps.Downloader,
		logger:     logger.With(logging.String(logging.FieldComponent, "workflow")),
		now:        now,
	}, nil
}

// Run consumes the transport's event channel until ctx is canceled or the
// channel closes, then waits for in-flight handlers to finish.
func (m *Manager) Run(ctx context.Context) error {
	events := m.bot.Events()
	for {
		select {
		case <-ctx.Done():
			m.wg.Wait()
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				m.wg.Wait()
				return nil
			}
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.dispatch(ctx, evt)
			}()
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, evt transport.Event) {
	correlationID := uuid.NewString()
	ctx = services.WithSessionID(ctx, evt.UserID())
	ctx = services.WithRequestID(ctx, correlationID)
	logger := m.logger.With(
		logging.String(logging.FieldSessionID, evt.UserID()),
		logging.String(logging.FieldCorrelationID, correlationID),
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked", logging.Any("panic", r))
		}
	}()

	switch e := evt.(type) {
	case transport.MessageEvent:
		m.handleMessage(ctx, logger, e)
	case transport.PhotoEvent:
		m.handlePhoto(ctx, logger, e)
	case transport.CallbackEvent:
		m.handleCallback(ctx, logger, e)
	default:
		logger.Warn("unknown event type ignored")
	}
}

// handleMessage greets first-time users with the main menu. Text from users
// that already hold a session is ignored; the workflow is menu driven.
func (m *Manager) handleMessage(ctx context.Context, logger *slog.Logger, evt transport.MessageEvent) {
	err := m.sessions.Update(evt.User, func(sess *session.Session) error {
		if sess.State != session.StateIdle {
			return nil
		}
		next, _ := session.Next(sess.State, session.EventFirstContact)
		sess.State = next
		logger.Info("new user, sending start menu")
		_, sendErr := m.bot.SendText(ctx, evt.User, welcomeText, mainMenuKeyboard())
		return sendErr
	})
	if err != nil {
		logger.Error("start menu failed", logging.Error(err))
	}
}
