package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

type AudioRecorder interface {
	IsRecordingSupported() bool
	IsRecording() bool
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (model.Audio, error)
	CancelRecording()
}

type ChatResponder interface {
	Chat(ctx context.Context, message string, chatCtx model.ChatContext, history []model.ChatTurn) (string, error)
}

// Assistant turns audio into a transcript, a transcript into a diagnosis,
// and answers follow-up questions about it.
type Assistant interface {
	ChatResponder
	Transcribe(ctx context.Context, audio model.Audio) (string, error)
	Diagnose(ctx context.Context, transcript string) (model.DiagnosisResult, error)
}

type ConsultationUsecaseDeps struct {
	Capture   AudioRecorder
	Assistant Assistant
	// Archive is optional; without it consultations are persisted by the
	// assistant backend itself.
	Archive ConsultationRecorder
	Logger  *logging.Logger
}

type ConsultationUsecase struct {
	ConsultationUsecaseDeps
	patientID  string
	diagnosing atomic.Bool
	now        func() time.Time
}

func NewConsultationUsecase(deps ConsultationUsecaseDeps, patientID string) *ConsultationUsecase {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &ConsultationUsecase{
		ConsultationUsecaseDeps: deps,
		patientID:               patientID,
		now:                     time.Now,
	}
}

func (c *ConsultationUsecase) IsRecordingSupported() bool {
	return c.Capture != nil && c.Capture.IsRecordingSupported()
}

func (c *ConsultationUsecase) IsRecording() bool {
	return c.Capture != nil && c.Capture.IsRecording()
}

func (c *ConsultationUsecase) StartRecording(ctx context.Context) error {
	if c.Capture == nil {
		return model.ErrUnsupported
	}
	return c.Capture.StartRecording(ctx)
}

func (c *ConsultationUsecase) CancelRecording() {
	if c.Capture != nil {
		c.Capture.CancelRecording()
	}
}

// StopAndTranscribe finishes the capture and sends it for transcription.
func (c *ConsultationUsecase) StopAndTranscribe(ctx context.Context) (string, error) {
	if c.Capture == nil {
		return "", model.ErrNotStarted
	}
	audio, err := c.Capture.StopRecording(ctx)
	if err != nil {
		return "", err
	}
	if len(audio.Data) == 0 {
		return "", model.ErrEmptyAudio
	}
	c.Logger.Info("transcribing recording", "bytes", len(audio.Data), "mime_type", audio.MIMEType)

	transcript, err := c.Assistant.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe recording: %w", err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", model.ErrEmptyTranscript
	}
	return transcript, nil
}

// Diagnose analyses a transcript. Only one diagnosis runs at a time.
func (c *ConsultationUsecase) Diagnose(ctx context.Context, transcript string) (model.Consultation, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return model.Consultation{}, model.ErrEmptyTranscript
	}
	if !c.diagnosing.CompareAndSwap(false, true) {
		return model.Consultation{}, model.ErrDiagnosisInProgress
	}
	defer c.diagnosing.Store(false)

	result, err := c.Assistant.Diagnose(ctx, transcript)
	if err != nil {
		return model.Consultation{}, fmt.Errorf("failed to diagnose transcript: %w", err)
	}
	result.Normalize()

	consultation := model.Consultation{
		Timestamp:  c.now().UTC(),
		Transcript: transcript,
		Result:     result,
		PatientID:  c.patientID,
	}
	if c.Archive == nil {
		return consultation, nil
	}
	saved, err := c.Archive.SaveConsultation(ctx, consultation)
	if err != nil {
		c.Logger.Warn("failed to save consultation", "error", err)
		return consultation, nil
	}
	c.Logger.Info("consultation saved", "id", saved.ID)
	return saved, nil
}
