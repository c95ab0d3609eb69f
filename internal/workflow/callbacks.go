package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reelpress/internal/logging"
	"reelpress/internal/session"
	"reelpress/internal/transport"
)

func (m *Manager) handleCallback(ctx context.Context, logger *slog.Logger, evt transport.CallbackEvent) {
	logger = logger.With(logging.String(logging.FieldEvent, evt.Data))
	logger.Info("callback received")

	switch evt.Data {
	case callbackCreateNew:
		m.handleCreateNew(ctx, logger, evt)
	case callbackHistory:
		m.handleHistoryView(ctx, logger, evt)
	case callbackHelp:
		m.answer(ctx, logger, evt.ID, "❓ Help")
		m.edit(ctx, logger, evt.User, evt.Message, helpText, backKeyboard())
	case callbackSettings:
		m.answer(ctx, logger, evt.ID, "⚙️ Settings")
		m.edit(ctx, logger, evt.User, evt.Message, settingsText(m.cfg), backKeyboard())
	case callbackBackToMenu:
		m.handleBackToMenu(ctx, logger, evt)
	case callbackConfirm:
		m.handleConfirm(ctx, logger, evt)
	case callbackCancel:
		m.handleCancel(ctx, logger, evt)
	default:
		if _, ok := m.cfg.TrackByID(evt.Data); ok {
			m.handleAudioChoice(ctx, logger, evt)
			return
		}
		logger.Warn("unknown callback ignored")
		m.answer(ctx, logger, evt.ID, "")
	}
}

func (m *Manager) handleCreateNew(ctx context.Context, logger *slog.Logger, evt transport.CallbackEvent) {
	err := m.sessions.Update(evt.User, func(sess *session.Session) error {
		next, ok := session.Next(sess.State, session.EventCreateNew)
		if !ok {
			m.answer(ctx, logger, evt.ID, "Please finish the current step first")
			return nil
		}
		sess.State = next
		m.answer(ctx, logger, evt.ID, "📸 Creating new post")
		m.edit(ctx, logger, evt.User, evt.Message,
			audioPromptText(m.cfg.Audio.Tracks), audioKeyboard(m.cfg.Audio.Tracks))
		return nil
	})
	if err != nil {
		logger.Error("create-new failed", logging.Error(err))
	}
}

func (m *Manager) handleAudioChoice(ctx context.Context, logger *slog.Logger, evt transport.CallbackEvent) {
	track, _ := m.cfg.TrackByID(evt.Data)
	err := m.sessions.Update(evt.User, func(sess *session.Session) error {
		next, ok := session.Next(sess.State, session.EventAudioChosen)
		if !ok {
			m.answer(ctx, logger, evt.ID, "Please finish the current step first")
			return nil
		}
		sess.State = next
		sess.Audio = track
		sess.HasAudio = true
		logger.Info("audio track selected", logging.String("track", track.ID))
		m.answer(ctx, logger, evt.ID, fmt.Sprintf("✅ Selected: %s", track.Label))
		m.edit(ctx, logger, evt.User, evt.Message,
			audioSelectedText(track), audioKeyboard(m.cfg.Audio.Tracks))
		return nil
	})
	if err != nil {
		logger.Error("audio selection failed", logging.Error(err))
	}
}

func (m *Manager) handleBackToMenu(ctx context.Context, logger *slog.Logger, evt transport.CallbackEvent) {
	m.sessions.Reset(evt.User)
	m.answer(ctx, logger, evt.ID, "📋 Back to menu")
	m.edit(ctx, logger, evt.User, evt.Message, welcomeText, mainMenuKeyboard())
}

func (m *Manager) handleHistoryView(ctx context.Context, logger *slog.Logger, evt transport.CallbackEvent) {
	m.answer(ctx, logger, evt.ID, "📚 Loading history")

	if m.hist == nil {
		m.edit(ctx, logger, evt.User, evt.Message,
			"📚 No history found. Create a new post to get started!", backKeyboard())
		return
	}
	runs, err := m.hist.Recent(ctx, evt.User, 10)
	if err != nil {
		logger.Error("history load failed", logging.Error(err))
		m.edit(ctx, logger, evt.User, evt.Message, "❌ Error loading history", backKeyboard())
		return
	}
	if len(runs) == 0 {
		m.edit(ctx, logger, evt.User, evt.Message,
			"📚 No history found. Create a new post to get started!", backKeyboard())
		return
	}

	var b strings.Builder
	b.WriteString("📚 Your Recent Posts:\n")
	lastDate := ""
	for _, run := range runs {
		date := run.CreatedAt.Format("2006-01-02")
		if date != lastDate {
			fmt.Fprintf(&b, "\n📅 %s\n", date)
			lastDate = date
		}
		fmt.Fprintf(&b, "  • %s (%s)\n", run.Title, run.CreatedAt.Format("15:04"))
	}
	m.edit(ctx, logger, evt.User, evt.Message, b.String(), backKeyboard())
}

func (m *Manager) answer(ctx context.Context, logger *slog.Logger, callbackID, text string) {
	if err := m.bot.AnswerCallback(ctx, callbackID, text); err != nil {
		logger.Warn("answer callback failed", logging.Error(err))
	}
}

func (m *Manager) edit(ctx context.Context, logger *slog.Logger, userID string, id transport.MessageID, text string, keyboard transport.Keyboard) {
	if err := m.bot.EditText(ctx, userID, id, text, keyboard); err != nil {
		logger.Warn("edit message failed", logging.Error(err))
	}
}
