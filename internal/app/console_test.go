package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/mednote/config"
	"github.com/iamvkosarev/mednote/internal/capture"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

type fakeInput struct {
	*bytes.Reader
}

func (fakeInput) Finish() error { return nil }
func (fakeInput) Close() error  { return nil }

type fakePlatform struct {
	supported bool
	data      []byte
}

func (p *fakePlatform) Capabilities() capture.Capabilities {
	return capture.Capabilities{Capture: p.supported, Recorder: p.supported}
}

func (p *fakePlatform) SupportsMIME(mimeType string) bool {
	return mimeType == "audio/webm;codecs=opus"
}

func (p *fakePlatform) Open(context.Context, capture.Constraints, string) (capture.Input, error) {
	return fakeInput{Reader: bytes.NewReader(p.data)}, nil
}

type fakeBackend struct {
	mu       sync.Mutex
	chatBody map[string]any
	deleted  []string
}

func (b *fakeBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/transcribe":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":    true,
				"transcript": "Paciente com febre e tosse há três dias",
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/diagnose":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":     true,
				"diagnosis":   "Provável quadro gripal",
				"diseases":    []string{"Gripe"},
				"exams":       []string{"Hemograma"},
				"medications": []string{"Paracetamol"},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/chat":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			b.mu.Lock()
			b.chatBody = body
			b.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"message": "Tome 500 mg a cada 6 horas.",
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/consultations":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"consultations": []map[string]any{
					{"id": "c1", "timestamp": "2025-03-01T10:00:00Z", "diagnosis": "Gripe", "diseases": []string{"Gripe"}},
					{"id": "c2", "timestamp": "2025-03-02T10:00:00Z", "diagnosis": "Gripe forte", "diseases": []string{"Gripe", "Sinusite"}},
				},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/consultations/missing":
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "not found"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/consultations/c1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"consultation": map[string]any{
					"id":            "c1",
					"timestamp":     "2025-03-01T10:00:00Z",
					"transcription": "Dor de garganta e febre baixa",
					"diagnosis":     "Faringite",
					"diseases":      []string{"Faringite"},
					"exams":         []string{"Teste rápido de estreptococo"},
				},
			})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/consultations/"):
			b.mu.Lock()
			b.deleted = append(b.deleted, strings.TrimPrefix(r.URL.Path, "/api/consultations/"))
			b.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		API:       config.API{BaseURL: baseURL, Timeout: 5 * time.Second, TranscribeTimeout: 5 * time.Second},
		Assistant: config.Assistant{Provider: config.AssistantBackend},
		History:   config.History{Backend: config.HistoryBackend, MaxRecords: 50, PatientID: "anonymous"},
		Chat:      config.Chat{ConversationIdleTimeout: time.Hour},
		Language:  config.Language{Default: "pt", Dir: t.TempDir()},
	}
}

func runConsole(t *testing.T, platform capture.Platform, script ...string) (string, *fakeBackend) {
	t.Helper()
	fake := &fakeBackend{}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	return runScript(t, testConfig(t, server.URL), platform, script...), fake
}

func runScript(t *testing.T, cfg *config.Config, platform capture.Platform, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	err := RunWithOptions(
		context.Background(), cfg, logging.Discard(), in, &out,
		Options{Platform: platform},
	)
	require.NoError(t, err)
	return out.String()
}

func TestConsoleConsultationFlow(t *testing.T) {
	platform := &fakePlatform{supported: true, data: []byte("opus-audio")}
	out, fake := runConsole(t, platform,
		"ajuda",
		"chat oi",
		"gravar",
		"parar",
		"chat Qual a dose?",
		"sair",
		"historico",
	)

	assert.Contains(t, out, "Comandos:")
	assert.Contains(t, out, "Faça uma consulta antes de usar o chat")
	assert.Contains(t, out, "Gravando...")
	assert.Contains(t, out, "Paciente com febre e tosse há três dias")
	assert.Contains(t, out, "Provável quadro gripal")
	assert.Contains(t, out, "• Hemograma")
	assert.Contains(t, out, "Seu diagnóstico")
	assert.Contains(t, out, "Tome 500 mg a cada 6 horas.")
	assert.NotContains(t, out, "Histórico de Consultas", "commands after quit are ignored")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotNil(t, fake.chatBody)
	assert.Equal(t, "Qual a dose?", fake.chatBody["message"])
	chatCtx, ok := fake.chatBody["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Paciente com febre e tosse há três dias", chatCtx["transcript"])
	assert.Equal(t, "Provável quadro gripal", chatCtx["diagnosis"])
	history, ok := fake.chatBody["chatHistory"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
	assert.Equal(t, "assistant", history[0].(map[string]any)["role"])
}

func TestConsoleHistoryAndLanguage(t *testing.T) {
	out, fake := runConsole(t, &fakePlatform{supported: true},
		"historico",
		"ver missing",
		"apagar c1",
		"estatisticas",
		"idioma",
		"bogus",
		"diagnose",
	)

	assert.Contains(t, out, "Histórico de Consultas")
	assert.Contains(t, out, "[c1]")
	assert.Contains(t, out, "[c2]")
	assert.Contains(t, out, "Consulta não encontrada")
	assert.Contains(t, out, "Consulta removida")
	assert.Contains(t, out, "Consultas: 2")
	assert.Contains(t, out, "• Gripe")
	assert.Contains(t, out, "Language: English")
	assert.Contains(t, out, "Unknown command. Type \"help\".")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"c1"}, fake.deleted)
}

func TestConsoleChatsAboutShownConsultation(t *testing.T) {
	out, fake := runConsole(t, &fakePlatform{supported: true},
		"ver c1",
		"chat isso é grave?",
	)

	assert.Contains(t, out, "Faringite")
	assert.NotContains(t, out, "Faça uma consulta antes de usar o chat")
	assert.Contains(t, out, "Tome 500 mg a cada 6 horas.")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotNil(t, fake.chatBody)
	assert.Equal(t, "isso é grave?", fake.chatBody["message"])
	chatCtx, ok := fake.chatBody["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Dor de garganta e febre baixa", chatCtx["transcript"])
	assert.Equal(t, "Faringite", chatCtx["diagnosis"])
}

func TestConsoleRecordingClearsPreviousConsultation(t *testing.T) {
	out, fake := runConsole(t, &fakePlatform{supported: true, data: []byte("opus-audio")},
		"ver c1",
		"gravar",
		"chat ainda está aí?",
	)

	assert.Contains(t, out, "Faringite")
	assert.Contains(t, out, "Faça uma consulta antes de usar o chat")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Nil(t, fake.chatBody)
}

func TestConsoleLanguageSurvivesRestart(t *testing.T) {
	server := httptest.NewServer((&fakeBackend{}).handler(t))
	t.Cleanup(server.Close)
	cfg := testConfig(t, server.URL)

	first := runScript(t, cfg, &fakePlatform{supported: true}, "idioma")
	assert.Contains(t, first, "Language: English")

	second := runScript(t, cfg, &fakePlatform{supported: true}, "bogus")
	assert.Contains(t, second, "Commands:")
	assert.Contains(t, second, "Unknown command. Type \"help\".")
}

func TestConsoleReportsHistoryFailures(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	cfg := testConfig(t, server.URL)
	server.Close()

	out := runScript(t, cfg, &fakePlatform{supported: true}, "historico", "apagar c1")

	assert.Contains(t, out, "Não foi possível carregar o histórico de consultas")
	assert.Contains(t, out, "Erro ao deletar consulta")
}

func TestConsoleReportsUnsupportedRecording(t *testing.T) {
	out, _ := runConsole(t, &fakePlatform{supported: false}, "gravar", "parar")

	assert.Contains(t, out, "Gravação de áudio não é suportada nesta plataforma")
	assert.NotContains(t, out, "Gravando...")
}

func TestConsoleStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer((&fakeBackend{}).handler(t))
	t.Cleanup(server.Close)

	in, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunWithOptions(
			ctx, testConfig(t, server.URL), logging.Discard(), in, io.Discard,
			Options{Platform: &fakePlatform{supported: true}},
		)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("console did not stop after cancel")
	}
}
