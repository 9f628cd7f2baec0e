package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/mednote/internal/backend"
	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := backend.New(backend.Config{BaseURL: srv.URL, Logger: logging.Discard()})
	require.NoError(t, err)
	return client
}

func TestListConsultationsCapsRecords(t *testing.T) {
	api := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		items := make([]map[string]any, 0, 60)
		for i := 0; i < 60; i++ {
			items = append(items, map[string]any{"id": fmt.Sprintf("c%d", i), "diagnosis": "x"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "consultations": items})
	})
	s := NewConsultationStorage(api, 0, logging.Discard())

	consultations, err := s.ListConsultations(context.Background())
	require.NoError(t, err)
	assert.Len(t, consultations, MaxRecords)
	assert.Equal(t, "c0", consultations[0].ID)
}

func TestGetAndDeleteRelay(t *testing.T) {
	api := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/missing"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"not found"}`))
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"success":true,"consultation":{"id":"abc","transcript":"febre","diagnosis":"Gripe"}}`))
		default:
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	})
	s := NewConsultationStorage(api, 10, nil)
	ctx := context.Background()

	consultation, err := s.GetConsultation(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "febre", consultation.Transcript)

	_, err = s.GetConsultation(ctx, "missing")
	require.ErrorIs(t, err, model.ErrConsultationNotFound)

	require.NoError(t, s.DeleteConsultation(ctx, "abc"))
	require.ErrorIs(t, s.DeleteConsultation(ctx, "missing"), model.ErrConsultationNotFound)
}
