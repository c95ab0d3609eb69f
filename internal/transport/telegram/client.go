package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"reelpress/internal/logging"
	"reelpress/internal/transport"
)

const defaultBaseURL = "https://api.telegram.org"

// Client is a long-polling Bot API transport. It translates bot updates
// into transport events and outbound calls into Bot API methods.
type Client struct {
	token    string
	baseURL  string
	httpc    *http.Client
	logger   *slog.Logger
	timeout  int
	events   chan transport.Event
	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL points the client at an alternate API endpoint (tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// New constructs a client for the given bot token.
func New(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("bot token required")
	}
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 65 * time.Second},
		logger:  logging.NewComponentLogger(logger, "telegram"),
		timeout: 50,
		events:  make(chan transport.Event, 64),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start begins the long-polling loop. The events channel closes when the
// loop exits.
func (c *Client) Start(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.poll(pollCtx)
}

// Stop terminates polling and waits for the loop to exit. Safe to call
// even when Start never ran.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			close(c.events)
			close(c.done)
			return
		}
		c.cancel()
		<-c.done
	})
}

// Events implements transport.Transport.
func (c *Client) Events() <-chan transport.Event { return c.events }

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text    string `json:"text"`
		Caption string `json:"caption"`
		Photo   []struct {
			FileID   string `json:"file_id"`
			FileSize int64  `json:"file_size"`
		} `json:"photo"`
	} `json:"message"`
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message *struct {
			MessageID int64 `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

func (c *Client) poll(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("poll failed", logging.Error(err))
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			evt := translate(u)
			if evt == nil {
				continue
			}
			select {
			case c.events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}
}

// translate maps one Bot API update onto a transport event, or nil for
// update kinds the workflow does not consume.
func translate(u update) transport.Event {
	switch {
	case u.Message != nil && len(u.Message.Photo) > 0:
		// The photo array is ordered smallest to largest; take the best.
		best := u.Message.Photo[len(u.Message.Photo)-1]
		return transport.PhotoEvent{
			User:    strconv.FormatInt(u.Message.Chat.ID, 10),
			FileRef: best.FileID,
			Caption: u.Message.Caption,
		}
	case u.Message != nil:
		return transport.MessageEvent{
			User: strconv.FormatInt(u.Message.Chat.ID, 10),
			Text: u.Message.Text,
		}
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return transport.CallbackEvent{
			User:    strconv.FormatInt(u.CallbackQuery.Message.Chat.ID, 10),
			ID:      u.CallbackQuery.ID,
			Data:    u.CallbackQuery.Data,
			Message: transport.MessageID(strconv.FormatInt(u.CallbackQuery.Message.MessageID, 10)),
		}
	default:
		return nil
	}
}

func (c *Client) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	payload := map[string]any{
		"timeout":         c.timeout,
		"offset":          offset,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var result []update
	if err := c.call(ctx, "getUpdates", payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SendText implements transport.Transport.
func (c *Client) SendText(ctx context.Context, userID, text string, keyboard transport.Keyboard) (transport.MessageID, error) {
	payload := map[string]any{
		"chat_id": userID,
		"text":    text,
	}
	if markup := replyMarkup(keyboard); markup != nil {
		payload["reply_markup"] = markup
	}
	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.call(ctx, "sendMessage", payload, &sent); err != nil {
		return "", err
	}
	return transport.MessageID(strconv.FormatInt(sent.MessageID, 10)), nil
}

// EditText implements transport.Transport.
func (c *Client) EditText(ctx context.Context, userID string, id transport.MessageID, text string, keyboard transport.Keyboard) error {
	messageID, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return fmt.Errorf("parse message id %q: %w", id, err)
	}
	payload := map[string]any{
		"chat_id":    userID,
		"message_id": messageID,
		"text":       text,
	}
	if markup := replyMarkup(keyboard); markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

// SendPhoto implements transport.Transport.
func (c *Client) SendPhoto(ctx context.Context, userID, path, caption string, keyboard transport.Keyboard) (transport.MessageID, error) {
	fields := map[string]string{
		"chat_id": userID,
		"caption": caption,
	}
	if markup := replyMarkup(keyboard); markup != nil {
		encoded, err := json.Marshal(markup)
		if err != nil {
			return "", fmt.Errorf("encode keyboard: %w", err)
		}
		fields["reply_markup"] = string(encoded)
	}
	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.upload(ctx, "sendPhoto", "photo", path, fields, &sent); err != nil {
		return "", err
	}
	return transport.MessageID(strconv.FormatInt(sent.MessageID, 10)), nil
}

// SendVideo implements transport.Transport.
func (c *Client) SendVideo(ctx context.Context, userID, path, caption string) error {
	fields := map[string]string{
		"chat_id": userID,
		"caption": caption,
	}
	return c.upload(ctx, "sendVideo", "video", path, fields, nil)
}

// AnswerCallback implements transport.Transport.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// FileURL implements transport.Transport.
func (c *Client) FileURL(ctx context.Context, fileRef string) (string, error) {
	payload := map[string]any{"file_id": fileRef}
	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := c.call(ctx, "getFile", payload, &file); err != nil {
		return "", err
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("file %s has no path", fileRef)
	}
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, file.FilePath), nil
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

func replyMarkup(keyboard transport.Keyboard) map[string]any {
	if len(keyboard) == 0 {
		return nil
	}
	rows := make([][]inlineButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]inlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineButton{Text: b.Label, CallbackData: b.Data})
		}
		rows = append(rows, buttons)
	}
	return map[string]any{"inline_keyboard": rows}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method, result)
}

func (c *Client) upload(ctx context.Context, method, field, path string, fields map[string]string, result any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write %s field: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create upload part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), &buf)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, method, result)
}

func (c *Client) do(req *http.Request, method string, result any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return fmt.Errorf("%s: api error: %s", method, parsed.Description)
	}
	if result != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}
