package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

const mostCommonDiseasesLimit = 5

type ConsultationStorage interface {
	ListConsultations(ctx context.Context) ([]model.Consultation, error)
	GetConsultation(ctx context.Context, id string) (model.Consultation, error)
	DeleteConsultation(ctx context.Context, id string) error
}

// ConsultationRecorder persists a finished consultation and returns it with
// its assigned id.
type ConsultationRecorder interface {
	SaveConsultation(ctx context.Context, consultation model.Consultation) (model.Consultation, error)
}

type HistoryUsecaseDeps struct {
	Storage ConsultationStorage
	Logger  *logging.Logger
}

type HistoryUsecase struct {
	HistoryUsecaseDeps
}

func NewHistoryUsecase(deps HistoryUsecaseDeps) *HistoryUsecase {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &HistoryUsecase{HistoryUsecaseDeps: deps}
}

// List returns consultations newest first.
func (h *HistoryUsecase) List(ctx context.Context) ([]model.Consultation, error) {
	consultations, err := h.Storage.ListConsultations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	sort.SliceStable(consultations, func(i, j int) bool {
		return consultations[i].Timestamp.After(consultations[j].Timestamp)
	})
	return consultations, nil
}

func (h *HistoryUsecase) Get(ctx context.Context, id string) (model.Consultation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Consultation{}, model.ErrConsultationNotFound
	}
	consultation, err := h.Storage.GetConsultation(ctx, id)
	if err != nil {
		return model.Consultation{}, fmt.Errorf("failed to get consultation %s: %w", id, err)
	}
	return consultation, nil
}

// Delete removes a consultation. Deleting one that is already gone succeeds.
func (h *HistoryUsecase) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.ErrConsultationNotFound
	}
	err := h.Storage.DeleteConsultation(ctx, id)
	if errors.Is(err, model.ErrConsultationNotFound) {
		h.Logger.Info("consultation already gone", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete consultation %s: %w", id, err)
	}
	h.Logger.Info("consultation deleted", "id", id)
	return nil
}

func (h *HistoryUsecase) Stats(ctx context.Context) (model.HistoryStats, error) {
	consultations, err := h.Storage.ListConsultations(ctx)
	if err != nil {
		return model.HistoryStats{}, fmt.Errorf("failed to list consultations: %w", err)
	}
	return ComputeStats(consultations), nil
}

// ComputeStats counts consultations, ranks diseases by frequency (ties by
// name) and finds the most recent timestamp.
func ComputeStats(consultations []model.Consultation) model.HistoryStats {
	stats := model.HistoryStats{
		TotalConsultations: len(consultations),
		MostCommonDiseases: []string{},
	}

	counts := make(map[string]int)
	var last time.Time
	for _, consultation := range consultations {
		for _, disease := range consultation.Result.Diseases {
			disease = strings.TrimSpace(disease)
			if disease != "" {
				counts[disease]++
			}
		}
		if consultation.Timestamp.After(last) {
			last = consultation.Timestamp
		}
	}
	if !last.IsZero() {
		stats.LastConsultation = &last
	}

	diseases := make([]string, 0, len(counts))
	for disease := range counts {
		diseases = append(diseases, disease)
	}
	sort.Slice(diseases, func(i, j int) bool {
		if counts[diseases[i]] != counts[diseases[j]] {
			return counts[diseases[i]] > counts[diseases[j]]
		}
		return diseases[i] < diseases[j]
	})
	if len(diseases) > mostCommonDiseasesLimit {
		diseases = diseases[:mostCommonDiseasesLimit]
	}
	stats.MostCommonDiseases = diseases
	return stats
}
