package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupported          = errors.New("audio recording is not supported on this platform")
	ErrPermissionDenied     = errors.New("access to the audio input was denied")
	ErrNotStarted           = errors.New("recording was not started")
	ErrAlreadyRecording     = errors.New("recording is already in progress")
	ErrConnectivity         = errors.New("no response from backend")
	ErrBackendRejected      = errors.New("backend rejected the request")
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrEmptyTranscript      = errors.New("transcript is empty")
	ErrEmptyAudio           = errors.New("recorded audio is empty")
	ErrDiagnosisInProgress  = errors.New("diagnosis is already in progress")
	ErrChatBusy             = errors.New("chat is waiting for a reply")
	ErrChatDoesNotExist     = errors.New("chat does not exist")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrPreferenceNotSet     = errors.New("preference is not set")
)

// BackendError is a response that arrived but was not a success.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend responded with status %d: %s", e.Status, e.Message)
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackendRejected
}

// ConnectivityError is a request that never got a response.
type ConnectivityError struct {
	Message string
	Err     error
}

func (e *ConnectivityError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}
