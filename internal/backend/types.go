package backend

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/iamvkosarev/mednote/internal/model"
)

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) failed() bool {
	return e.Success != nil && !*e.Success
}

type transcribeResponse struct {
	envelope
	Transcript string `json:"transcript"`
}

type diagnoseRequest struct {
	Transcript string `json:"transcript"`
}

type diagnoseResponse struct {
	envelope
	Diagnosis   string                      `json:"diagnosis"`
	Diseases    stringList                  `json:"diseases"`
	Exams       stringList                  `json:"exams"`
	Medications stringList                  `json:"medications"`
	Explanation *model.DiagnosisExplanation `json:"explanation,omitempty"`
	Language    string                      `json:"language,omitempty"`
}

func (r diagnoseResponse) result() model.DiagnosisResult {
	result := model.DiagnosisResult{
		Diagnosis:   r.Diagnosis,
		Diseases:    r.Diseases,
		Exams:       r.Exams,
		Medications: r.Medications,
		Explanation: r.Explanation,
		Language:    r.Language,
	}
	result.Normalize()
	return result
}

type chatContext struct {
	Transcript  string                      `json:"transcript"`
	Diagnosis   string                      `json:"diagnosis"`
	Diseases    []string                    `json:"diseases"`
	Exams       []string                    `json:"exams"`
	Medications []string                    `json:"medications"`
	Explanation *model.DiagnosisExplanation `json:"explanation,omitempty"`
}

type chatRequest struct {
	Message     string           `json:"message"`
	Context     chatContext      `json:"context"`
	ChatHistory []model.ChatTurn `json:"chatHistory"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type consultationDTO struct {
	ID            string                      `json:"id"`
	Timestamp     flexibleTime                `json:"timestamp"`
	CreatedAt     flexibleTime                `json:"createdAt"`
	Transcription string                      `json:"transcription"`
	Transcript    string                      `json:"transcript"`
	Diagnosis     string                      `json:"diagnosis"`
	Diseases      stringList                  `json:"diseases"`
	Exams         stringList                  `json:"exams"`
	Medications   stringList                  `json:"medications"`
	Explanation   *model.DiagnosisExplanation `json:"explanation,omitempty"`
	PatientID     string                      `json:"patientId"`
	AudioFileName string                      `json:"audioFileName"`
}

func (c consultationDTO) consultation() model.Consultation {
	timestamp := time.Time(c.Timestamp)
	if timestamp.IsZero() {
		timestamp = time.Time(c.CreatedAt)
	}
	transcript := c.Transcription
	if transcript == "" {
		transcript = c.Transcript
	}
	result := model.DiagnosisResult{
		Diagnosis:   c.Diagnosis,
		Diseases:    c.Diseases,
		Exams:       c.Exams,
		Medications: c.Medications,
		Explanation: c.Explanation,
	}
	result.Normalize()
	return model.Consultation{
		ID:            c.ID,
		Timestamp:     timestamp,
		Transcript:    transcript,
		Result:        result,
		PatientID:     c.PatientID,
		AudioFileName: c.AudioFileName,
	}
}

type listConsultationsResponse struct {
	envelope
	Consultations []consultationDTO `json:"consultations"`
}

type getConsultationResponse struct {
	envelope
	Consultation *consultationDTO `json:"consultation"`
}

// stringList decodes a JSON array of strings and treats anything else as empty.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var values []any
	if err := json.Unmarshal(data, &values); err != nil {
		*l = stringList{}
		return nil
	}
	list := make(stringList, 0, len(values))
	for _, value := range values {
		if s, ok := value.(string); ok {
			list = append(list, s)
		}
	}
	*l = list
	return nil
}

// timestampLayouts are tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// flexibleTime accepts RFC3339 and zone-less strings, epoch milliseconds and
// {_seconds,_nanoseconds} timestamp objects. Anything it cannot read is left
// as the zero time so one odd record does not fail a whole list.
type flexibleTime time.Time

func (t *flexibleTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if parsed, ok := parseTimestamp(s); ok {
			*t = flexibleTime(parsed)
		}
	case '{':
		var ts struct {
			Seconds     *int64 `json:"_seconds"`
			Nanoseconds int64  `json:"_nanoseconds"`
			SecondsAlt  *int64 `json:"seconds"`
			NanosAlt    int64  `json:"nanoseconds"`
		}
		if err := json.Unmarshal(data, &ts); err != nil {
			return nil
		}
		switch {
		case ts.Seconds != nil:
			*t = flexibleTime(time.Unix(*ts.Seconds, ts.Nanoseconds).UTC())
		case ts.SecondsAlt != nil:
			*t = flexibleTime(time.Unix(*ts.SecondsAlt, ts.NanosAlt).UTC())
		}
	default:
		var millis float64
		if err := json.Unmarshal(data, &millis); err == nil {
			*t = flexibleTime(time.UnixMilli(int64(millis)).UTC())
		}
	}
	return nil
}

// parseTimestamp reads s with the first matching layout. Zone-less values
// are taken as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
