package encode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the encoder.
type Option func(*Encoder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *Encoder) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// Encoder muxes a still preview with an audio track into a fixed-length
// video via ffmpeg.
type Encoder struct {
	cfg    config.Encode
	exec   Executor
	logger *slog.Logger
}

// NewEncoder constructs an encoder from the [encode] configuration section.
func NewEncoder(cfg config.Encode, logger *slog.Logger, opts ...Option) *Encoder {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Encoder{
		cfg:    cfg,
		exec:   commandExecutor{},
		logger: logger.With(logging.String(logging.FieldComponent, "encode")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode produces <outDir>/video.mp4 from the preview image and audio track.
// Both inputs must already exist; a missing input fails before ffmpeg runs.
// Encoder failures are never retried.
func (e *Encoder) Encode(ctx context.Context, previewPath, audioPath, outDir string) (string, error) {
	for _, input := range []struct {
		label string
		path  string
	}{
		{"preview image", previewPath},
		{"audio track", audioPath},
	} {
		if strings.TrimSpace(input.path) == "" {
			return "", services.Wrap(services.ErrEncode, "encode", "preflight",
				fmt.Sprintf("%s path is empty", input.label), nil)
		}
		if _, err := os.Stat(input.path); err != nil {
			return "", services.Wrap(services.ErrEncode, "encode", "preflight",
				fmt.Sprintf("%s missing", input.label), err)
		}
	}

	videoPath := filepath.Join(outDir, "video.mp4")
	args := e.arguments(previewPath, audioPath, videoPath)

	runCtx := ctx
	if e.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	binary := strings.TrimSpace(e.cfg.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}

	e.logger.Info("encoding video",
		logging.String("preview", previewPath),
		logging.String("audio", audioPath),
		logging.String("output", videoPath),
	)
	start := time.Now()
	err := e.exec.Run(runCtx, binary, args, func(line string) {
		e.logger.Debug("ffmpeg", logging.String("line", line))
	})
	if err != nil {
		return "", services.Wrap(services.ErrEncode, "encode", "ffmpeg", "encoder failed", err)
	}
	e.logger.Info("video encoded",
		logging.String("output", videoPath),
		logging.Duration("duration", time.Since(start)),
	)
	return videoPath, nil
}

// arguments builds the fixed ffmpeg invocation: loop the still for the
// configured duration, mux the audio, stop at whichever input is shorter.
func (e *Encoder) arguments(previewPath, audioPath, videoPath string) []string {
	duration := e.cfg.DurationSeconds
	if duration <= 0 {
		duration = 8
	}
	videoBitrate := strings.TrimSpace(e.cfg.VideoBitrate)
	if videoBitrate == "" {
		videoBitrate = "5000k"
	}
	audioBitrate := strings.TrimSpace(e.cfg.AudioBitrate)
	if audioBitrate == "" {
		audioBitrate = "320k"
	}
	preset := strings.TrimSpace(e.cfg.Preset)
	if preset == "" {
		preset = "slow"
	}
	crf := e.cfg.CRF
	if crf <= 0 {
		crf = 18
	}

	return []string{
		"-loop", "1",
		"-i", previewPath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-b:v", videoBitrate,
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-shortest",
		"-t", strconv.Itoa(duration),
		videoPath,
		"-y",
	}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onOutput != nil {
				onOutput(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { scanErr = err })
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("run %s: %w", binary, err)
	}
	return nil
}
