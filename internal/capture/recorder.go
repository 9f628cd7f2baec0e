package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/internal/observability/metrics"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

const defaultChunkSize = 32 * 1024

type RecorderDeps struct {
	Platform Platform
	Logger   *logging.Logger
	Metrics  *metrics.CaptureMetrics
}

// Recorder owns at most one open audio input at a time.
type Recorder struct {
	RecorderDeps
	constraints Constraints
	chunkSize   int

	mu     sync.Mutex
	active *session
}

func NewRecorder(deps RecorderDeps, constraints Constraints) *Recorder {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Recorder{
		RecorderDeps: deps,
		constraints:  constraints,
		chunkSize:    defaultChunkSize,
	}
}

// IsRecordingSupported is false when either the capture or the recorder
// primitive is missing.
func (r *Recorder) IsRecordingSupported() bool {
	if r.Platform == nil {
		return false
	}
	caps := r.Platform.Capabilities()
	return caps.Capture && caps.Recorder
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

func (r *Recorder) StartRecording(ctx context.Context) error {
	if !r.IsRecordingSupported() {
		return model.ErrUnsupported
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return model.ErrAlreadyRecording
	}

	mimeType := r.supportedMIMEType()
	input, err := r.Platform.Open(ctx, r.constraints, mimeType)
	if err != nil {
		r.Metrics.ObserveRecording("failed", 0)
		if errors.Is(err, model.ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("failed to open audio input: %w", err)
	}

	s := newSession(input, mimeType, r.chunkSize)
	s.start()
	r.active = s
	r.Logger.Info("recording started", "mime_type", mimeType)
	return nil
}

// StopRecording finalizes the capture and returns it as one audio object.
func (r *Recorder) StopRecording(ctx context.Context) (model.Audio, error) {
	r.mu.Lock()
	s := r.active
	r.active = nil
	r.mu.Unlock()
	if s == nil {
		return model.Audio{}, model.ErrNotStarted
	}

	finishErr := s.input.Finish()
	waitErr := s.wait(ctx)
	releaseErr := s.release()

	if waitErr != nil {
		r.Metrics.ObserveRecording("failed", 0)
		return model.Audio{}, fmt.Errorf("failed to finish recording: %w", waitErr)
	}
	if readErr := s.err(); readErr != nil {
		r.Metrics.ObserveRecording("failed", 0)
		return model.Audio{}, fmt.Errorf("failed to read audio input: %w", readErr)
	}
	if finishErr != nil {
		r.Logger.Warn("audio input did not finish cleanly", "error", finishErr)
	}
	if releaseErr != nil {
		r.Logger.Warn("failed to release audio input", "error", releaseErr)
	}

	audio := model.NewAudio(s.bytes(), s.mimeType)
	r.Metrics.ObserveRecording("stopped", len(audio.Data))
	r.Logger.Info(
		"recording stopped",
		"mime_type", audio.MIMEType, "bytes", len(audio.Data), "chunks", s.chunkCount(),
	)
	return audio, nil
}

// CancelRecording drops any capture in progress without producing output.
func (r *Recorder) CancelRecording() {
	r.mu.Lock()
	s := r.active
	r.active = nil
	r.mu.Unlock()
	if s == nil {
		return
	}
	if err := s.release(); err != nil {
		r.Logger.Warn("failed to release audio input", "error", err)
	}
	s.wg.Wait()
	r.Metrics.ObserveRecording("cancelled", 0)
	r.Logger.Info("recording cancelled")
}

func (r *Recorder) supportedMIMEType() string {
	for _, mimeType := range PreferredMIMETypes {
		if r.Platform.SupportsMIME(mimeType) {
			return mimeType
		}
	}
	return ""
}

type session struct {
	input     Input
	mimeType  string
	chunkSize int
	wg        conc.WaitGroup

	releaseOnce sync.Once
	releaseErr  error
	released    chan struct{}

	mu      sync.Mutex
	chunks  [][]byte
	readErr error
}

func newSession(input Input, mimeType string, chunkSize int) *session {
	return &session{
		input:     input,
		mimeType:  mimeType,
		chunkSize: chunkSize,
		released:  make(chan struct{}),
	}
}

func (s *session) start() {
	s.wg.Go(s.pump)
}

func (s *session) pump() {
	buf := make([]byte, s.chunkSize)
	for {
		n, err := s.input.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.mu.Unlock()
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) && !s.isReleased() && !errors.Is(err, os.ErrClosed) {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
		}
		return
	}
}

func (s *session) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		_ = s.release()
		<-done
		return ctx.Err()
	}
}

// release closes the input exactly once.
func (s *session) release() error {
	s.releaseOnce.Do(func() {
		close(s.released)
		s.releaseErr = s.input.Close()
	})
	return s.releaseErr
}

func (s *session) isReleased() bool {
	select {
	case <-s.released:
		return true
	default:
		return false
	}
}

func (s *session) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

func (s *session) bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Join(s.chunks, nil)
}

func (s *session) chunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}
