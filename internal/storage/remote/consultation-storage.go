package remote

import (
	"context"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

const MaxRecords = 50

type consultationAPI interface {
	ListConsultations(ctx context.Context) ([]model.Consultation, error)
	GetConsultation(ctx context.Context, id string) (model.Consultation, error)
	DeleteConsultation(ctx context.Context, id string) error
}

// ConsultationStorage relays history operations to the MedNote backend,
// which persists consultations as part of diagnosis.
type ConsultationStorage struct {
	api        consultationAPI
	maxRecords int
	logger     *logging.Logger
}

func NewConsultationStorage(api consultationAPI, maxRecords int, logger *logging.Logger) *ConsultationStorage {
	if maxRecords <= 0 || maxRecords > MaxRecords {
		maxRecords = MaxRecords
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConsultationStorage{
		api:        api,
		maxRecords: maxRecords,
		logger:     logger,
	}
}

func (s *ConsultationStorage) ListConsultations(ctx context.Context) ([]model.Consultation, error) {
	consultations, err := s.api.ListConsultations(ctx)
	if err != nil {
		return nil, err
	}
	if len(consultations) > s.maxRecords {
		s.logger.Debug("truncating consultation list", "received", len(consultations), "kept", s.maxRecords)
		consultations = consultations[:s.maxRecords]
	}
	return consultations, nil
}

func (s *ConsultationStorage) GetConsultation(ctx context.Context, id string) (model.Consultation, error) {
	return s.api.GetConsultation(ctx, id)
}

func (s *ConsultationStorage) DeleteConsultation(ctx context.Context, id string) error {
	return s.api.DeleteConsultation(ctx, id)
}
