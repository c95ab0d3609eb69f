package workflow

import (
	"context"
	"log/slog"
	"os"

	"reelpress/internal/history"
	"reelpress/internal/logging"
	"reelpress/internal/runlog"
	"reelpress/internal/services"
	"reelpress/internal/session"
	"reelpress/internal/storage"
	"reelpress/internal/transport"
)

// handleConfirm encodes the pending post into a video, delivers it, and
// records the completed run.
func (m *Manager) handleConfirm(ctx context.Context, logger *slog.Logger, evt transport.CallbackEvent) {
	err := m.sessions.Update(evt.User, func(sess *session.Session) error {
		next, ok := session.Next(sess.State, session.EventConfirm)
		if !ok || sess.Pending == nil {
			m.answer(ctx, logger, evt.ID, "❌ Error: Post data not found")
			return nil
		}
		sess.State = next
		post := sess.Pending
		m.answer(ctx, logger, evt.ID, "🎬 Generating video...")

		logger = logger.With(logging.String(logging.FieldRunDir, post.Run.Path))
		activity := runlog.Open(post.Run.ActivityLogPath(), logger)

		statusID, sendErr := m.bot.SendText(ctx, evt.User, "🎬 Creating video...", nil)
		if sendErr != nil {
			sess.Reset()
			return sendErr
		}
		status := func(text string) {
			m.edit(ctx, logger, evt.User, statusID, text, nil)
		}

		activity.Infof("Creating video with audio: %s", post.Audio.File)
		videoPath, err := m.encoder.Encode(ctx, post.PreviewPath, post.Audio.File, post.Run.Path)
		if err != nil {
			m.reportFailure(ctx, logger, activity, sess, status, "encode", err)
			return nil
		}
		activity.Successf("Video created: %s", videoPath)

		status("📤 Uploading video...")
		if err := m.bot.SendVideo(ctx, evt.User, videoPath, videoCaption(post.Title, post.Hashtags)); err != nil {
			err = services.Wrap(services.ErrTransport, "workflow", "confirm", "send video", err)
			m.reportFailure(ctx, logger, activity, sess, status, "upload", err)
			return nil
		}
		activity.Success("Video sent")

		now := m.now()
		meta := storage.Metadata{
			Title:       post.Title,
			Content:     post.Content,
			Hashtags:    post.Hashtags,
			Date:        post.Date,
			Audio:       post.Audio.File,
			PreviewPath: post.PreviewPath,
			VideoPath:   videoPath,
		}
		if err := storage.WriteMetadata(post.Run, meta, now); err != nil {
			logger.Error("metadata write failed", logging.Error(err))
			activity.Errorf("Error saving metadata: %v", err)
		} else {
			activity.Success("Metadata saved")
		}

		if m.hist != nil {
			run := &history.Run{
				UserID:    evt.User,
				Title:     post.Title,
				Hashtags:  post.Hashtags,
				Audio:     post.Audio.ID,
				RunDir:    post.Run.Path,
				VideoPath: videoPath,
				CreatedAt: now,
			}
			if err := m.hist.Record(ctx, run); err != nil {
				logger.Error("history record failed", logging.Error(err))
			}
		}

		if err := m.notifier.NotifyRunCompleted(ctx, post.Title, videoPath); err != nil {
			logger.Warn("completion notification not delivered", logging.Error(err))
		}

		sess.Reset()
		if _, err := m.bot.SendText(ctx, evt.User, "🎉 What's next?", postCompletionKeyboard()); err != nil {
			logger.Warn("post-completion menu failed", logging.Error(err))
		}
		activity.Success("Video generation complete")
		return nil
	})
	if err != nil {
		logger.Error("confirm failed", logging.Error(err))
	}
}

// handleCancel discards the pending post, removing the rendered preview so
// a cancelled run leaves only the source image behind.
func (m *Manager) handleCancel(ctx context.Context, logger *slog.Logger, evt transport.CallbackEvent) {
	err := m.sessions.Update(evt.User, func(sess *session.Session) error {
		if post := sess.Pending; post != nil {
			activity := runlog.Open(post.Run.ActivityLogPath(), logger)
			if post.PreviewPath != "" {
				if err := os.Remove(post.PreviewPath); err != nil && !os.IsNotExist(err) {
					logger.Error("preview delete failed", logging.Error(err))
					activity.Errorf("Error deleting preview: %v", err)
				} else {
					activity.Successf("Preview image deleted: %s", post.PreviewPath)
				}
			}
		}
		sess.Reset()
		m.answer(ctx, logger, evt.ID, "❌ Post cancelled")
		m.edit(ctx, logger, evt.User, evt.Message, cancelledText, mainMenuKeyboard())
		return nil
	})
	if err != nil {
		logger.Error("cancel failed", logging.Error(err))
	}
}
