package model

import (
	"time"
)

type ConfidenceLevel string

const (
	ConfidenceHigh   = ConfidenceLevel("high")
	ConfidenceMedium = ConfidenceLevel("medium")
	ConfidenceLow    = ConfidenceLevel("low")
)

type DiagnosisExplanation struct {
	Reasoning             string   `json:"reasoning" dynamodbav:"reasoning"`
	Confidence            float64  `json:"confidence" dynamodbav:"confidence"`
	KeySymptoms           []string `json:"keySymptoms" dynamodbav:"keySymptoms"`
	DifferentialDiagnoses []string `json:"differentialDiagnoses" dynamodbav:"differentialDiagnoses"`
	RecommendationBasis   string   `json:"recommendationBasis" dynamodbav:"recommendationBasis"`
}

// Normalize clamps confidence into [0,1] and replaces nil lists with empty ones.
func (e *DiagnosisExplanation) Normalize() {
	if e == nil {
		return
	}
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 1 {
		e.Confidence = 1
	}
	e.KeySymptoms = nonNil(e.KeySymptoms)
	e.DifferentialDiagnoses = nonNil(e.DifferentialDiagnoses)
}

func (e DiagnosisExplanation) Level() ConfidenceLevel {
	switch {
	case e.Confidence >= 0.8:
		return ConfidenceHigh
	case e.Confidence >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type DiagnosisResult struct {
	Diagnosis   string                `json:"diagnosis"`
	Diseases    []string              `json:"diseases"`
	Exams       []string              `json:"exams"`
	Medications []string              `json:"medications"`
	Explanation *DiagnosisExplanation `json:"explanation,omitempty"`
	Language    string                `json:"language,omitempty"`
}

// Normalize makes missing optional collections empty so callers never see nil.
func (r *DiagnosisResult) Normalize() {
	r.Diseases = nonNil(r.Diseases)
	r.Exams = nonNil(r.Exams)
	r.Medications = nonNil(r.Medications)
	r.Explanation.Normalize()
}

type Consultation struct {
	ID            string
	Timestamp     time.Time
	Transcript    string
	Result        DiagnosisResult
	PatientID     string
	AudioFileName string
}

type HistoryStats struct {
	TotalConsultations int
	MostCommonDiseases []string
	LastConsultation   *time.Time
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
