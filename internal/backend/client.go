package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/internal/observability/metrics"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

const (
	DefaultBaseURL           = "https://mednote-backend.onrender.com"
	DefaultTimeout           = 30 * time.Second
	DefaultTranscribeTimeout = 120 * time.Second

	PathTranscribe    = "/api/transcribe"
	PathDiagnose      = "/api/diagnose"
	PathChat          = "/api/chat"
	PathConsultations = "/api/consultations"
	PathHealth        = "/api/health"
)

var backendTracer = otel.Tracer("mednote/backend")

type operation struct {
	name              string
	failureMessage    string
	connectionMessage string
}

var (
	opTranscribe = operation{"transcribe", "Error transcribing audio", "Connection error while transcribing audio"}
	opDiagnose   = operation{"diagnose", "Error generating diagnosis", "Connection error while generating diagnosis"}
	opChat       = operation{"chat", "Error sending message", "Connection error in chat"}
	opList       = operation{"list_consultations", "Error loading history", "Connection error while loading history"}
	opGet        = operation{"get_consultation", "Error loading consultation", "Connection error while loading consultation"}
	opDelete     = operation{"delete_consultation", "Error deleting consultation", "Connection error while deleting consultation"}
	opHealth     = operation{"health", "Backend is unhealthy", "Connection error while checking backend health"}
)

type Config struct {
	BaseURL           string
	Timeout           time.Duration
	TranscribeTimeout time.Duration
	HTTPClient        *http.Client
	Logger            *logging.Logger
	Metrics           *metrics.BackendMetrics
}

// Client talks to the MedNote backend. Each call is a single request with its
// own timeout; nothing is retried or cached.
type Client struct {
	baseURL           string
	timeout           time.Duration
	transcribeTimeout time.Duration
	httpClient        *http.Client
	logger            *logging.Logger
	metrics           *metrics.BackendMetrics
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend: base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base URL %q: %w", baseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transcribeTimeout := cfg.TranscribeTimeout
	if transcribeTimeout <= 0 {
		transcribeTimeout = DefaultTranscribeTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:           baseURL,
		timeout:           timeout,
		transcribeTimeout: transcribeTimeout,
		httpClient:        httpClient,
		logger:            logger,
		metrics:           cfg.Metrics,
	}, nil
}

func (c *Client) Transcribe(ctx context.Context, audio model.Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("backend: %w", model.ErrEmptyAudio)
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, audio.FileName))
	header.Set("Content-Type", audio.MIMEType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create audio part: %w", err)
	}
	if _, err = part.Write(audio.Data); err != nil {
		return "", fmt.Errorf("failed to write audio part: %w", err)
	}
	if err = writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	var resp transcribeResponse
	err = c.invoke(
		ctx, opTranscribe, c.transcribeTimeout, http.MethodPost, PathTranscribe,
		buf.Bytes(), writer.FormDataContentType(), &resp,
	)
	if err != nil {
		return "", err
	}
	if resp.failed() {
		return "", c.rejected(opTranscribe, http.StatusOK, resp.Message, resp.Error)
	}
	return resp.Transcript, nil
}

func (c *Client) Diagnose(ctx context.Context, transcript string) (model.DiagnosisResult, error) {
	body, err := json.Marshal(diagnoseRequest{Transcript: transcript})
	if err != nil {
		return model.DiagnosisResult{}, fmt.Errorf("failed to marshal diagnose request: %w", err)
	}
	var resp diagnoseResponse
	if err = c.invoke(ctx, opDiagnose, c.timeout, http.MethodPost, PathDiagnose, body, "application/json", &resp); err != nil {
		return model.DiagnosisResult{}, err
	}
	if resp.failed() {
		return model.DiagnosisResult{}, c.rejected(opDiagnose, http.StatusOK, resp.Message, resp.Error)
	}
	return resp.result(), nil
}

func (c *Client) Chat(
	ctx context.Context,
	message string,
	chatCtx model.ChatContext,
	history []model.ChatTurn,
) (string, error) {
	if history == nil {
		history = []model.ChatTurn{}
	}
	result := chatCtx.Result
	result.Normalize()
	body, err := json.Marshal(chatRequest{
		Message: message,
		Context: chatContext{
			Transcript:  chatCtx.Transcript,
			Diagnosis:   result.Diagnosis,
			Diseases:    result.Diseases,
			Exams:       result.Exams,
			Medications: result.Medications,
			Explanation: result.Explanation,
		},
		ChatHistory: history,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}
	var resp chatResponse
	if err = c.invoke(ctx, opChat, c.timeout, http.MethodPost, PathChat, body, "application/json", &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", c.rejected(opChat, http.StatusOK, resp.Error, "")
	}
	return resp.Message, nil
}

func (c *Client) ListConsultations(ctx context.Context) ([]model.Consultation, error) {
	var resp listConsultationsResponse
	if err := c.invoke(ctx, opList, c.timeout, http.MethodGet, PathConsultations, nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.failed() {
		return nil, c.rejected(opList, http.StatusOK, resp.Message, resp.Error)
	}
	consultations := make([]model.Consultation, 0, len(resp.Consultations))
	for _, dto := range resp.Consultations {
		consultations = append(consultations, dto.consultation())
	}
	return consultations, nil
}

func (c *Client) GetConsultation(ctx context.Context, id string) (model.Consultation, error) {
	var resp getConsultationResponse
	err := c.invoke(ctx, opGet, c.timeout, http.MethodGet, consultationPath(id), nil, "", &resp)
	if err != nil {
		return model.Consultation{}, notFound(err, id)
	}
	if resp.failed() || resp.Consultation == nil {
		return model.Consultation{}, fmt.Errorf("%w: %s", model.ErrConsultationNotFound, id)
	}
	return resp.Consultation.consultation(), nil
}

// DeleteConsultation removes a consultation. A 404 is reported as
// model.ErrConsultationNotFound so callers can decide how to treat it.
func (c *Client) DeleteConsultation(ctx context.Context, id string) error {
	var resp envelope
	err := c.invoke(ctx, opDelete, c.timeout, http.MethodDelete, consultationPath(id), nil, "", &resp)
	if err != nil {
		return notFound(err, id)
	}
	if resp.failed() {
		return c.rejected(opDelete, http.StatusOK, resp.Message, resp.Error)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.invoke(ctx, opHealth, c.timeout, http.MethodGet, PathHealth, nil, "", nil)
}

func (c *Client) invoke(
	ctx context.Context,
	op operation,
	timeout time.Duration,
	method, path string,
	body []byte,
	contentType string,
	out any,
) (err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := backendTracer.Start(ctx, "backend."+op.name)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	started := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Warn("backend request failed", "operation", op.name, "outcome", outcome, "error", err)
		}
		c.metrics.ObserveRequest(op.name, outcome, time.Since(started).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		outcome = "invalid"
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("backend request", "operation", op.name, "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "connectivity"
		return &model.ConnectivityError{Message: op.connectionMessage, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "connectivity"
		return &model.ConnectivityError{Message: op.connectionMessage, Err: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "rejected"
		if resp.StatusCode == http.StatusNotFound {
			outcome = "not_found"
		}
		var env envelope
		_ = json.Unmarshal(data, &env)
		return &model.BackendError{
			Status:  resp.StatusCode,
			Message: firstNonEmpty(env.Message, env.Error, op.failureMessage),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		outcome = "malformed"
		return &model.BackendError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s: malformed response", op.failureMessage),
		}
	}
	return nil
}

func (c *Client) rejected(op operation, status int, messages ...string) error {
	messages = append(messages, op.failureMessage)
	err := &model.BackendError{Status: status, Message: firstNonEmpty(messages...)}
	c.logger.Warn("backend reported failure", "operation", op.name, "message", err.Message)
	return err
}

func notFound(err error, id string) error {
	var backendErr *model.BackendError
	if errors.As(err, &backendErr) && backendErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", model.ErrConsultationNotFound, id)
	}
	return err
}

func consultationPath(id string) string {
	return PathConsultations + "/" + url.PathEscape(id)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
