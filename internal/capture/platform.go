package capture

import (
	"context"
	"io"
)

// Capabilities reports which capture primitives the platform provides.
type Capabilities struct {
	Capture  bool
	Recorder bool
}

type Constraints struct {
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
	ChannelCount     int
	SampleRate       int
}

func DefaultConstraints() Constraints {
	return Constraints{
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
		ChannelCount:     1,
		SampleRate:       16000,
	}
}

// Input is an open audio device streaming encoded audio.
type Input interface {
	io.Reader
	// Finish asks the device to flush what it has and end the stream with io.EOF.
	Finish() error
	// Close releases the device. Calling it more than once is safe.
	Close() error
}

// Platform wraps the primitives an audio capture needs.
type Platform interface {
	Capabilities() Capabilities
	SupportsMIME(mimeType string) bool
	// Open acquires the audio input. mimeType is empty when the platform
	// should pick the encoding itself. Implementations return an error
	// matching model.ErrPermissionDenied when access is refused.
	Open(ctx context.Context, constraints Constraints, mimeType string) (Input, error)
}

// PreferredMIMETypes is the encoding preference order.
var PreferredMIMETypes = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/mp4",
	"audio/wav",
}
