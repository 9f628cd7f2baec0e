package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/internal/observability/metrics"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL: server.URL + "/",
		Logger:  logging.Discard(),
		Metrics: metrics.NewBackendMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func TestNewClientDefaultsAndValidation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)

	client, err := New(Config{BaseURL: "http://localhost:3001/", Logger: logging.Discard()})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001", client.baseURL)
	assert.Equal(t, DefaultTimeout, client.timeout)
	assert.Equal(t, DefaultTranscribeTimeout, client.transcribeTimeout)
	assert.Greater(t, client.transcribeTimeout, client.timeout)
}

func TestTranscribeUploadsMultipartAudio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathTranscribe, r.URL.Path)

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "recording.webm", header.Filename)
		assert.Equal(t, "audio/webm;codecs=opus", header.Header.Get("Content-Type"))
		assert.Equal(t, "opus-bytes", string(data))

		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "transcript": "patient reports fever"})
	})

	transcript, err := client.Transcribe(context.Background(), model.NewAudio([]byte("opus-bytes"), "audio/webm;codecs=opus"))
	require.NoError(t, err)
	assert.Equal(t, "patient reports fever", transcript)
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := client.Transcribe(context.Background(), model.NewAudio(nil, ""))
	assert.ErrorIs(t, err, model.ErrEmptyAudio)
}

func TestTranscribeErrorMessageFromBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{"success": false, "message": "Audio too short"})
	})

	_, err := client.Transcribe(context.Background(), model.NewAudio([]byte("x"), "audio/wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrBackendRejected)

	var backendErr *model.BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, http.StatusBadRequest, backendErr.Status)
	assert.Equal(t, "Audio too short", backendErr.Message)
}

func TestTranscribeSuccessFalseIsRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": false})
	})

	_, err := client.Transcribe(context.Background(), model.NewAudio([]byte("x"), "audio/wav"))
	var backendErr *model.BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "Error transcribing audio", backendErr.Message)
}

func TestDiagnose(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathDiagnose, r.URL.Path)
		var req diagnoseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "patient reports fever and cough", req.Transcript)

		writeJSON(t, w, http.StatusOK, map[string]any{
			"success":     true,
			"diagnosis":   "Upper respiratory infection",
			"diseases":    []string{"Common cold", "Flu"},
			"exams":       []string{"CBC"},
			"medications": []string{"Acetaminophen"},
			"explanation": map[string]any{
				"reasoning":   "Fever with cough",
				"confidence":  0.82,
				"keySymptoms": []string{"fever", "cough"},
			},
		})
	})

	result, err := client.Diagnose(context.Background(), "patient reports fever and cough")
	require.NoError(t, err)
	assert.Equal(t, "Upper respiratory infection", result.Diagnosis)
	assert.Equal(t, []string{"Common cold", "Flu"}, result.Diseases)
	assert.Equal(t, []string{"CBC"}, result.Exams)
	assert.Equal(t, []string{"Acetaminophen"}, result.Medications)
	require.NotNil(t, result.Explanation)
	assert.Equal(t, model.ConfidenceHigh, result.Explanation.Level())
	assert.Equal(t, []string{}, result.Explanation.DifferentialDiagnoses)
}

func TestDiagnoseToleratesMissingLists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "diagnosis": "Unclear", "exams": "none"})
	})

	result, err := client.Diagnose(context.Background(), "vague complaint")
	require.NoError(t, err)
	assert.Equal(t, []string{}, result.Diseases)
	assert.Equal(t, []string{}, result.Exams)
	assert.Equal(t, []string{}, result.Medications)
	assert.Nil(t, result.Explanation)
}

func TestConnectivityError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := New(Config{BaseURL: baseURL, Logger: logging.Discard()})
	require.NoError(t, err)

	_, err = client.Diagnose(context.Background(), "fever")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConnectivity)
	assert.NotErrorIs(t, err, model.ErrBackendRejected)
	assert.Contains(t, err.Error(), "Connection error while generating diagnosis")
}

func TestTimeoutIsConnectivityError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond, Logger: logging.Discard()})
	require.NoError(t, err)

	err = client.Health(context.Background())
	assert.ErrorIs(t, err, model.ErrConnectivity)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChatSendsContextAndHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathChat, r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "Is it contagious?", req["message"])
		ctx := req["context"].(map[string]any)
		assert.Equal(t, "fever and cough", ctx["transcript"])
		assert.Equal(t, "Flu", ctx["diagnosis"])
		assert.Equal(t, []any{}, ctx["medications"])

		history := req["chatHistory"].([]any)
		require.Len(t, history, 1)
		assert.Equal(t, map[string]any{"role": "assistant", "content": "Hello!"}, history[0])

		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "message": "Yes, for a few days."})
	})

	reply, err := client.Chat(
		context.Background(),
		"Is it contagious?",
		model.ChatContext{Transcript: "fever and cough", Result: model.DiagnosisResult{Diagnosis: "Flu"}},
		[]model.ChatTurn{{Role: model.MessageSourceAssistant, Content: "Hello!"}},
	)
	require.NoError(t, err)
	assert.Equal(t, "Yes, for a few days.", reply)
}

func TestChatFailureUsesErrorField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": false, "message": "", "error": "rate limited"})
	})

	_, err := client.Chat(context.Background(), "hi", model.ChatContext{}, nil)
	var backendErr *model.BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "rate limited", backendErr.Message)
}

func TestListConsultationsMapsRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathConsultations, r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"consultations": []map[string]any{
				{
					"id":            "c1",
					"timestamp":     "2024-05-01T10:00:00Z",
					"transcription": "fever",
					"transcript":    "ignored",
					"diagnosis":     "Flu",
					"diseases":      []string{"Flu"},
				},
				{
					"id":         "c2",
					"timestamp":  map[string]any{"_seconds": 1714557600, "_nanoseconds": 0},
					"transcript": "headache",
				},
				{
					"id":        "c3",
					"createdAt": 1714557600000,
				},
			},
		})
	})

	records, err := client.ListConsultations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "fever", records[0].Transcript)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), records[0].Timestamp.UTC())
	assert.Equal(t, []string{"Flu"}, records[0].Result.Diseases)
	assert.Equal(t, []string{}, records[0].Result.Exams)

	assert.Equal(t, "headache", records[1].Transcript)
	assert.Equal(t, int64(1714557600), records[1].Timestamp.Unix())
	assert.Equal(t, "", records[1].Result.Diagnosis)
	assert.Equal(t, []string{}, records[1].Result.Medications)

	assert.Equal(t, int64(1714557600), records[2].Timestamp.Unix())
}

func TestListConsultationsToleratesOddTimestamps(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"consultations": []map[string]any{
				{"id": "good", "timestamp": "2024-05-01T10:00:00Z"},
				{"id": "space", "timestamp": "2024-05-01 10:00:00"},
				{"id": "zoneless", "timestamp": "2024-05-01T10:00:00"},
				{"id": "garbage", "timestamp": "last tuesday"},
				{"id": "wrong-type", "timestamp": true},
			},
		})
	})

	records, err := client.ListConsultations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 5)

	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, records[0].Timestamp.UTC())
	assert.Equal(t, want, records[1].Timestamp.UTC())
	assert.Equal(t, want, records[2].Timestamp.UTC())
	assert.True(t, records[3].Timestamp.IsZero())
	assert.True(t, records[4].Timestamp.IsZero())
	assert.Equal(t, "garbage", records[3].ID)
}

func TestListConsultationsSuccessFalse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": false, "message": "database offline"})
	})

	_, err := client.ListConsultations(context.Background())
	assert.ErrorIs(t, err, model.ErrBackendRejected)
	assert.Contains(t, err.Error(), "database offline")
}

func TestGetConsultation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathConsultations + "/c1":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"success":      true,
				"consultation": map[string]any{"id": "c1", "transcript": "fever", "diagnosis": "Flu"},
			})
		default:
			writeJSON(t, w, http.StatusNotFound, map[string]any{"success": false, "message": "not found"})
		}
	})

	record, err := client.GetConsultation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Flu", record.Result.Diagnosis)

	_, err = client.GetConsultation(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrConsultationNotFound)
}

func TestDeleteConsultation(t *testing.T) {
	var (
		mu      sync.Mutex
		deleted []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == PathConsultations+"/gone" {
			writeJSON(t, w, http.StatusNotFound, map[string]any{"success": false})
			return
		}
		if r.URL.Path == PathConsultations+"/broken" {
			writeJSON(t, w, http.StatusInternalServerError, map[string]any{"message": "boom"})
			return
		}
		mu.Lock()
		deleted = append(deleted, r.URL.Path)
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true})
	})

	require.NoError(t, client.DeleteConsultation(context.Background(), "c1"))
	mu.Lock()
	assert.Equal(t, []string{PathConsultations + "/c1"}, deleted)
	mu.Unlock()

	assert.ErrorIs(t, client.DeleteConsultation(context.Background(), "gone"), model.ErrConsultationNotFound)

	err := client.DeleteConsultation(context.Background(), "broken")
	assert.ErrorIs(t, err, model.ErrBackendRejected)
	assert.NotErrorIs(t, err, model.ErrConsultationNotFound)
}

func TestHealth(t *testing.T) {
	var unhealthy atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathHealth, r.URL.Path)
		if !unhealthy.Load() {
			writeJSON(t, w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	assert.NoError(t, client.Health(context.Background()))
	unhealthy.Store(true)
	err := client.Health(context.Background())
	var backendErr *model.BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "Backend is unhealthy", backendErr.Message)
}
