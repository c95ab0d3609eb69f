package workflow

import (
	"fmt"
	"strings"

	"reelpress/internal/config"
	"reelpress/internal/transport"
)

// Callback data values round-tripped through inline keyboards. Audio tracks
// use their configured track IDs directly.
const (
	callbackCreateNew  = "create_new"
	callbackHistory    = "view_history"
	callbackHelp       = "help_menu"
	callbackSettings   = "settings_menu"
	callbackBackToMenu = "back_to_menu"
	callbackConfirm    = "confirm_generate"
	callbackCancel     = "cancel_post"
)

const welcomeText = "👋 Welcome to Video Maker Bot!\n\nWhat would you like to do?"

const cancelledText = "👋 Post cancelled. What would you like to do?"

const captionFormatText = "Title : Your Title\nContent : Your Content\nHashtags : #hashtag1 #hashtag2\n(Optional) Date : DD MMM YYYY"

const helpText = `📖 How to use this bot:

1️⃣ Create New Post
   • Select audio track
   • Send photo with caption

2️⃣ Caption Format
   Title : Your title
   Content : Your content
   Hashtags : #tag1 #tag2
   (Optional) Date : DD MMM YYYY

3️⃣ Review & Generate
   • Preview your post
   • Approve to generate video
   • Cancel to start over

Features:
✨ High-quality rendering
🎬 8-second videos
📚 View history`

func mainMenuKeyboard() transport.Keyboard {
	return transport.Keyboard{
		transport.Row(
			transport.Button{Label: "➕ Create New Post", Data: callbackCreateNew},
			transport.Button{Label: "📚 View History", Data: callbackHistory},
		),
		transport.Row(
			transport.Button{Label: "❓ Help", Data: callbackHelp},
			transport.Button{Label: "⚙️ Settings", Data: callbackSettings},
		),
	}
}

func postCompletionKeyboard() transport.Keyboard {
	return transport.Keyboard{
		transport.Row(
			transport.Button{Label: "➕ Create New Post", Data: callbackCreateNew},
			transport.Button{Label: "📚 View History", Data: callbackHistory},
		),
		transport.Row(
			transport.Button{Label: "❓ Help", Data: callbackHelp},
		),
	}
}

func audioKeyboard(tracks []config.AudioTrack) transport.Keyboard {
	row := make([]transport.Button, 0, len(tracks))
	for _, track := range tracks {
		row = append(row, transport.Button{Label: track.Label, Data: track.ID})
	}
	return transport.Keyboard{
		row,
		transport.Row(transport.Button{Label: "⬅️ Back to Menu", Data: callbackBackToMenu}),
	}
}

func backKeyboard() transport.Keyboard {
	return transport.Keyboard{
		transport.Row(transport.Button{Label: "⬅️ Back", Data: callbackBackToMenu}),
	}
}

func confirmKeyboard() transport.Keyboard {
	return transport.Keyboard{
		transport.Row(
			transport.Button{Label: "✅ Generate Video", Data: callbackConfirm},
			transport.Button{Label: "❌ Cancel & Restart", Data: callbackCancel},
		),
	}
}

func audioPromptText(tracks []config.AudioTrack) string {
	var b strings.Builder
	b.WriteString("🎵 Select an audio track for your video:\n")
	for _, track := range tracks {
		fmt.Fprintf(&b, "\n%s", track.Label)
	}
	return b.String()
}

func audioSelectedText(track config.AudioTrack) string {
	return fmt.Sprintf("✅ Audio selected: %s\n\n📝 Now send me a photo with a caption.\n\nCaption format:\n%s\n\n💡 Want to change audio? Select a different one above.",
		track.Label, captionFormatText)
}

func settingsText(cfg *config.Config) string {
	duration := cfg.Encode.DurationSeconds
	if duration <= 0 {
		duration = 8
	}
	bitrate := strings.TrimSpace(cfg.Encode.VideoBitrate)
	if bitrate == "" {
		bitrate = "5000k"
	}
	return fmt.Sprintf(`⚙️ Bot Settings

🎬 Video Duration: %d seconds
🎵 Audio Tracks: %d available
📸 Image Quality: High (%dx%d)
🎥 Video Quality: %sbps

Coming Soon:
• Custom duration
• More audio tracks
• Quality presets`,
		duration, len(cfg.Audio.Tracks),
		cfg.Render.ViewportWidth, cfg.Render.ViewportHeight, bitrate)
}

func previewCaption(title, content, hashtags string) string {
	// Truncate on a rune boundary; a split multibyte character would make
	// the caption invalid UTF-8 and the transport rejects such text.
	summary := content
	if runes := []rune(summary); len(runes) > 50 {
		summary = string(runes[:50])
	}
	return fmt.Sprintf("✅ Preview of your post\n\n📌 Title: %s\n📝 Content: %s...\n🏷️ Hashtags: %s", title, summary, hashtags)
}

func videoCaption(title, hashtags string) string {
	return fmt.Sprintf("✅ Your video is ready!\n\n📌 Title: %s\n🏷️ Hashtags: %s", title, hashtags)
}
