package workflow

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"reelpress/internal/caption"
	"reelpress/internal/logging"
	"reelpress/internal/render"
	"reelpress/internal/runlog"
	"reelpress/internal/services"
	"reelpress/internal/session"
	"reelpress/internal/transport"
)

// handlePhoto runs the full preview pipeline for an uploaded photo: allocate
// a run directory, parse the caption, download the image, render the
// preview, and hand the user a confirm/cancel keyboard. The session lock is
// held for the whole pipeline so a second upload from the same user waits.
func (m *Manager) handlePhoto(ctx context.Context, logger *slog.Logger, evt transport.PhotoEvent) {
	err := m.sessions.Update(evt.User, func(sess *session.Session) error {
		if sess.State == session.StateIdle {
			next, _ := session.Next(sess.State, session.EventFirstContact)
			sess.State = next
			_, sendErr := m.bot.SendText(ctx, evt.User, welcomeText, mainMenuKeyboard())
			return sendErr
		}

		next, ok := session.Next(sess.State, session.EventPhoto)
		if !ok || !sess.HasAudio {
			logger.Warn("photo outside awaiting-photo step", logging.String(logging.FieldState, string(sess.State)))
			_, sendErr := m.bot.SendText(ctx, evt.User, "⚠️ Please select an audio track first", nil)
			return sendErr
		}

		statusID, sendErr := m.bot.SendText(ctx, evt.User, "⏳ Processing...", nil)
		if sendErr != nil {
			return sendErr
		}
		status := func(text string) {
			m.edit(ctx, logger, evt.User, statusID, text, nil)
		}

		if strings.TrimSpace(evt.Caption) == "" {
			logger.Warn("photo without caption")
			status("❌ Please send a caption with Title, Content, Hashtags.")
			return nil
		}

		// Parse before allocating; a bad caption must not burn a run
		// directory since the user retries from the same state.
		fields, err := caption.Parse(evt.Caption, m.now())
		if err != nil {
			m.reportFailure(ctx, logger, nil, sess, status, "caption", err)
			return nil
		}

		run, err := m.allocator.Allocate(m.now())
		if err != nil {
			m.reportFailure(ctx, logger, nil, sess, status, "storage", err)
			return nil
		}
		ctx = services.WithRunDir(ctx, run.Path)
		logger = logger.With(logging.String(logging.FieldRunDir, run.Path))
		activity := runlog.Open(run.ActivityLogPath(), logger)
		activity.Successf("Post directory created: %s", run.Path)
		activity.Successf("Caption parsed - Title: %q", fields.Title)

		status("📥 Downloading image...")
		fileURL, err := m.bot.FileURL(ctx, evt.FileRef)
		if err != nil {
			err = services.Wrap(services.ErrTransport, "workflow", "photo", "resolve file reference", err)
			m.reportFailure(ctx, logger, activity, sess, status, "download", err)
			return nil
		}
		imagePath := run.OriginalImagePath(imageExtension(fileURL))
		if err := m.downloader.Fetch(ctx, fileURL, imagePath); err != nil {
			err = services.Wrap(services.ErrTransport, "workflow", "photo", "download image", err)
			m.reportFailure(ctx, logger, activity, sess, status, "download", err)
			return nil
		}
		activity.Successf("Image downloaded: %s", imagePath)

		status("🎨 Rendering preview...")
		imageURL, err := m.assets.URL(imagePath)
		if err != nil {
			err = services.Wrap(services.ErrRender, "workflow", "photo", "resolve image url", err)
			m.reportFailure(ctx, logger, activity, sess, status, "render", err)
			return nil
		}
		previewPath, err := m.renderer.Render(ctx, render.Request{
			Fields:   fields,
			ImageURL: imageURL,
			Run:      run,
		})
		if err != nil {
			m.reportFailure(ctx, logger, activity, sess, status, "render", err)
			return nil
		}
		activity.Successf("Preview rendered: %s", previewPath)

		status("📸 Sending preview...")
		if _, err := m.bot.SendPhoto(ctx, evt.User, previewPath,
			previewCaption(fields.Title, fields.Content, fields.Hashtags), nil); err != nil {
			err = services.Wrap(services.ErrTransport, "workflow", "photo", "send preview", err)
			m.reportFailure(ctx, logger, activity, sess, status, "send preview", err)
			return nil
		}
		if _, err := m.bot.SendText(ctx, evt.User, "What would you like to do?", confirmKeyboard()); err != nil {
			logger.Warn("confirm prompt failed", logging.Error(err))
		}

		sess.State = next
		sess.Pending = &session.Post{
			Title:           fields.Title,
			Content:         fields.Content,
			Hashtags:        fields.Hashtags,
			Date:            fields.Date,
			SourceImagePath: imagePath,
			PreviewPath:     previewPath,
			Audio:           sess.Audio,
			Run:             run,
		}
		activity.Success("Preview sent")
		return nil
	})
	if err != nil {
		logger.Error("photo pipeline failed", logging.Error(err))
	}
}

// reportFailure classifies a pipeline error, tells the user, and recovers
// the session. Format errors keep the user in the awaiting-photo step;
// everything else returns to the main menu.
func (m *Manager) reportFailure(ctx context.Context, logger *slog.Logger, activity *runlog.Log, sess *session.Session, status func(string), step string, err error) {
	logger.Error(step+" failed", logging.Error(err))
	activity.Errorf("Error during %s: %v", step, err)
	status(services.UserMessage(err))

	if services.IsRecoverable(err) {
		return
	}
	sess.Reset()
	if nerr := m.notifier.NotifyRunFailed(ctx, err, step); nerr != nil {
		logger.Warn("failure notification not delivered", logging.Error(nerr))
	}
	if _, serr := m.bot.SendText(ctx, sess.ID, welcomeText, mainMenuKeyboard()); serr != nil {
		logger.Warn("menu after failure not delivered", logging.Error(serr))
	}
}

// imageExtension picks the original image extension from the transport file
// URL, defaulting to jpg.
func imageExtension(fileURL string) string {
	if idx := strings.IndexAny(fileURL, "?#"); idx >= 0 {
		fileURL = fileURL[:idx]
	}
	ext := strings.TrimPrefix(path.Ext(path.Base(fileURL)), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}
