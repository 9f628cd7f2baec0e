package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

const (
	DefaultPatientIndex = "patientId-timestamp"
	MaxRecords          = 50
	recordVersion       = 1
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type consultationRecord struct {
	ID            string                      `dynamodbav:"id"`
	Timestamp     string                      `dynamodbav:"timestamp"`
	Transcript    string                      `dynamodbav:"transcript"`
	Transcription string                      `dynamodbav:"transcription,omitempty"`
	Diagnosis     string                      `dynamodbav:"diagnosis"`
	Diseases      []string                    `dynamodbav:"diseases"`
	Exams         []string                    `dynamodbav:"exams"`
	Medications   []string                    `dynamodbav:"medications"`
	Explanation   *model.DiagnosisExplanation `dynamodbav:"explanation,omitempty"`
	PatientID     string                      `dynamodbav:"patientId"`
	AudioFileName string                      `dynamodbav:"audioFileName,omitempty"`
	CreatedAt     string                      `dynamodbav:"createdAt"`
	Version       int                         `dynamodbav:"version"`
}

type Config struct {
	Table        string
	PatientIndex string
	PatientID    string
	MaxRecords   int
	Logger       *logging.Logger
}

// ConsultationStorage keeps consultations in a DynamoDB table keyed by id
// with a patientId/timestamp secondary index for listing.
type ConsultationStorage struct {
	client       dynamoAPI
	table        string
	patientIndex string
	patientID    string
	limit        int32
	logger       *logging.Logger
	now          func() time.Time
}

func NewConsultationStorage(client dynamoAPI, cfg Config) (*ConsultationStorage, error) {
	if client == nil {
		return nil, errors.New("dynamodb client cannot be nil")
	}
	if cfg.Table == "" {
		return nil, errors.New("table name cannot be empty")
	}
	if cfg.PatientIndex == "" {
		cfg.PatientIndex = DefaultPatientIndex
	}
	if cfg.MaxRecords <= 0 || cfg.MaxRecords > MaxRecords {
		cfg.MaxRecords = MaxRecords
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &ConsultationStorage{
		client:       client,
		table:        cfg.Table,
		patientIndex: cfg.PatientIndex,
		patientID:    cfg.PatientID,
		limit:        int32(cfg.MaxRecords),
		logger:       cfg.Logger,
		now:          time.Now,
	}, nil
}

// ListConsultations returns the patient's consultations newest first.
func (s *ConsultationStorage) ListConsultations(ctx context.Context) ([]model.Consultation, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(s.patientIndex),
		KeyConditionExpression: aws.String("patientId = :patientId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":patientId": &types.AttributeValueMemberS{Value: s.patientID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(s.limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}

	var records []consultationRecord
	if err = attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to decode consultations: %w", err)
	}
	consultations := make([]model.Consultation, 0, len(records))
	for _, record := range records {
		consultations = append(consultations, s.consultation(record))
	}
	return consultations, nil
}

func (s *ConsultationStorage) GetConsultation(ctx context.Context, id string) (model.Consultation, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       idKey(id),
	})
	if err != nil {
		return model.Consultation{}, fmt.Errorf("failed to get consultation %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return model.Consultation{}, model.ErrConsultationNotFound
	}
	var record consultationRecord
	if err = attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return model.Consultation{}, fmt.Errorf("failed to decode consultation %s: %w", id, err)
	}
	return s.consultation(record), nil
}

// DeleteConsultation reports model.ErrConsultationNotFound when nothing was
// stored under id.
func (s *ConsultationStorage) DeleteConsultation(ctx context.Context, id string) error {
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		Key:          idKey(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("failed to delete consultation %s: %w", id, err)
	}
	if len(out.Attributes) == 0 {
		return model.ErrConsultationNotFound
	}
	return nil
}

func (s *ConsultationStorage) SaveConsultation(ctx context.Context, consultation model.Consultation) (model.Consultation, error) {
	now := s.now().UTC()
	if consultation.ID == "" {
		consultation.ID = uuid.NewString()
	}
	if consultation.Timestamp.IsZero() {
		consultation.Timestamp = now
	}
	if consultation.PatientID == "" {
		consultation.PatientID = s.patientID
	}
	consultation.Result.Normalize()

	record := consultationRecord{
		ID:            consultation.ID,
		Timestamp:     consultation.Timestamp.UTC().Format(time.RFC3339Nano),
		Transcript:    consultation.Transcript,
		Diagnosis:     consultation.Result.Diagnosis,
		Diseases:      consultation.Result.Diseases,
		Exams:         consultation.Result.Exams,
		Medications:   consultation.Result.Medications,
		Explanation:   consultation.Result.Explanation,
		PatientID:     consultation.PatientID,
		AudioFileName: consultation.AudioFileName,
		CreatedAt:     now.Format(time.RFC3339Nano),
		Version:       recordVersion,
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return model.Consultation{}, fmt.Errorf("failed to marshal consultation: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return model.Consultation{}, fmt.Errorf("failed to persist consultation: %w", err)
	}
	return consultation, nil
}

func (s *ConsultationStorage) consultation(record consultationRecord) model.Consultation {
	transcript := record.Transcript
	if transcript == "" {
		transcript = record.Transcription
	}
	result := model.DiagnosisResult{
		Diagnosis:   record.Diagnosis,
		Diseases:    record.Diseases,
		Exams:       record.Exams,
		Medications: record.Medications,
		Explanation: record.Explanation,
	}
	result.Normalize()
	return model.Consultation{
		ID:            record.ID,
		Timestamp:     s.parseTime(record.ID, record.Timestamp, record.CreatedAt),
		Transcript:    transcript,
		Result:        result,
		PatientID:     record.PatientID,
		AudioFileName: record.AudioFileName,
	}
}

func (s *ConsultationStorage) parseTime(id string, values ...string) time.Time {
	for _, value := range values {
		if value == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			s.logger.Warn("invalid consultation timestamp", "id", id, "value", value, "error", err)
			continue
		}
		return parsed
	}
	return time.Time{}
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
