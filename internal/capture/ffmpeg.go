package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

const (
	DefaultFFmpegPath    = "ffmpeg"
	DefaultInputFormat   = "pulse"
	DefaultInputDevice   = "default"
	DefaultStartupGrace  = 500 * time.Millisecond
	encoderProbeTimeout  = 5 * time.Second
	maxStderrBufferBytes = 8 * 1024
)

// encoders required per MIME type; any one of them is enough.
var mimeEncoders = map[string][]string{
	"audio/webm;codecs=opus": {"libopus", "opus"},
	"audio/webm":             {"libopus", "opus", "libvorbis"},
	"audio/mp4":              {"aac"},
	"audio/wav":              {"pcm_s16le"},
}

var permissionMarkers = []string{
	"permission denied",
	"operation not permitted",
	"not authorized",
	"access denied",
}

type FFmpegConfig struct {
	Path         string
	InputFormat  string
	Device       string
	StartupGrace time.Duration
	Logger       *logging.Logger
}

// FFmpegPlatform captures audio by running the ffmpeg binary against a
// system input device and reading the encoded stream from its stdout.
type FFmpegPlatform struct {
	path         string
	inputFormat  string
	device       string
	startupGrace time.Duration
	logger       *logging.Logger

	probeOnce sync.Once
	resolved  string
	encoders  map[string]bool
}

func NewFFmpegPlatform(cfg FFmpegConfig) *FFmpegPlatform {
	if cfg.Path == "" {
		cfg.Path = DefaultFFmpegPath
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = DefaultInputFormat
	}
	if cfg.Device == "" {
		cfg.Device = DefaultInputDevice
	}
	if cfg.StartupGrace <= 0 {
		cfg.StartupGrace = DefaultStartupGrace
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &FFmpegPlatform{
		path:         cfg.Path,
		inputFormat:  cfg.InputFormat,
		device:       cfg.Device,
		startupGrace: cfg.StartupGrace,
		logger:       cfg.Logger,
	}
}

func (p *FFmpegPlatform) Capabilities() Capabilities {
	p.probe()
	if p.resolved == "" {
		return Capabilities{}
	}
	return Capabilities{
		Capture:  true,
		Recorder: len(p.encoders) > 0,
	}
}

func (p *FFmpegPlatform) SupportsMIME(mimeType string) bool {
	p.probe()
	return supportsMIME(p.encoders, mimeType)
}

func (p *FFmpegPlatform) Open(ctx context.Context, constraints Constraints, mimeType string) (Input, error) {
	p.probe()
	if p.resolved == "" {
		return nil, model.ErrUnsupported
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create audio pipe: %w", err)
	}

	cmd := exec.Command(p.resolved, buildArgs(p.inputFormat, p.device, constraints, mimeType)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("failed to open ffmpeg stdin: %w", err)
	}
	stderr := &limitedBuffer{limit: maxStderrBufferBytes}
	cmd.Stdout = writer
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	// The child holds its own copy of the write end.
	writer.Close()

	in := &ffmpegInput{
		cmd:    cmd,
		stdin:  stdin,
		stdout: reader,
		stderr: stderr,
		exited: make(chan struct{}),
	}
	go in.wait()

	grace := time.NewTimer(p.startupGrace)
	defer grace.Stop()
	select {
	case <-in.exited:
		reader.Close()
		return nil, classifyExit(in.waitErr, stderr.String())
	case <-ctx.Done():
		in.Close()
		return nil, ctx.Err()
	case <-grace.C:
	}

	p.logger.Debug("ffmpeg capture started", "input_format", p.inputFormat, "device", p.device, "mime_type", mimeType)
	return in, nil
}

func (p *FFmpegPlatform) probe() {
	p.probeOnce.Do(func() {
		path, err := exec.LookPath(p.path)
		if err != nil {
			p.logger.Warn("ffmpeg not found, audio capture disabled", "path", p.path, "error", err)
			return
		}
		p.resolved = path

		ctx, cancel := context.WithTimeout(context.Background(), encoderProbeTimeout)
		defer cancel()
		out, err := exec.CommandContext(ctx, path, "-hide_banner", "-encoders").Output()
		if err != nil {
			p.logger.Warn("failed to list ffmpeg encoders", "error", err)
			return
		}
		p.encoders = parseEncoders(out)
	})
}

func buildArgs(inputFormat, device string, c Constraints, mimeType string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-f", inputFormat, "-i", device}
	if c.ChannelCount > 0 {
		args = append(args, "-ac", strconv.Itoa(c.ChannelCount))
	}
	if c.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(c.SampleRate))
	}
	// Echo cancellation has no single-input ffmpeg filter and is left to the device.
	var filters []string
	if c.NoiseSuppression {
		filters = append(filters, "afftdn")
	}
	if c.AutoGainControl {
		filters = append(filters, "dynaudnorm")
	}
	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}

	switch mimeType {
	case "audio/webm;codecs=opus":
		args = append(args, "-c:a", "libopus", "-f", "webm")
	case "audio/mp4":
		args = append(args, "-c:a", "aac", "-movflags", "frag_keyframe+empty_moov", "-f", "mp4")
	case "audio/wav":
		args = append(args, "-c:a", "pcm_s16le", "-f", "wav")
	default:
		args = append(args, "-f", "webm")
	}
	return append(args, "pipe:1")
}

// parseEncoders reads the audio encoder names out of `ffmpeg -encoders`.
func parseEncoders(out []byte) map[string]bool {
	encoders := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	listing := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "------") {
			listing = true
			continue
		}
		if !listing {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "A") {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}

func supportsMIME(encoders map[string]bool, mimeType string) bool {
	for _, encoder := range mimeEncoders[mimeType] {
		if encoders[encoder] {
			return true
		}
	}
	return false
}

func classifyExit(waitErr error, stderr string) error {
	lower := strings.ToLower(stderr)
	for _, marker := range permissionMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", model.ErrPermissionDenied, strings.TrimSpace(stderr))
		}
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = "ffmpeg exited during startup"
	}
	if waitErr != nil {
		return fmt.Errorf("%s: %w", msg, waitErr)
	}
	return errors.New(msg)
}

type ffmpegInput struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	stderr *limitedBuffer

	exited  chan struct{}
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

func (in *ffmpegInput) wait() {
	in.waitErr = in.cmd.Wait()
	close(in.exited)
}

func (in *ffmpegInput) Read(p []byte) (int, error) {
	return in.stdout.Read(p)
}

// Finish sends ffmpeg its interactive quit command so it writes the
// container trailer before closing stdout.
func (in *ffmpegInput) Finish() error {
	select {
	case <-in.exited:
		return nil
	default:
	}
	if _, err := io.WriteString(in.stdin, "q"); err != nil {
		return fmt.Errorf("failed to stop ffmpeg: %w", err)
	}
	return nil
}

func (in *ffmpegInput) Close() error {
	in.closeOnce.Do(func() {
		select {
		case <-in.exited:
		default:
			if err := in.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				in.closeErr = fmt.Errorf("failed to kill ffmpeg: %w", err)
			}
			<-in.exited
		}
		if err := in.stdout.Close(); err != nil && in.closeErr == nil {
			in.closeErr = err
		}
	})
	return in.closeErr
}

type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
