// Package render turns domain values into the localized text shown by the
// terminal front end.
package render

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/message"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/local"
)

const bullet = "  • "

type Renderer struct {
	catalog *local.Catalog
}

func New(catalog *local.Catalog) *Renderer {
	return &Renderer{catalog: catalog}
}

func (r *Renderer) t(key string, lang local.Language) string {
	return r.catalog.Translate(key, lang)
}

func (r *Renderer) Text(key string, lang local.Language) string {
	return r.t(key, lang)
}

// Transcript prints the transcript with its word and character counts.
func (r *Renderer) Transcript(transcript string, lang local.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", r.t(local.KeyTranscription, lang))
	if strings.TrimSpace(transcript) == "" {
		b.WriteString(r.t(local.KeyNoTranscript, lang))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(transcript)
	b.WriteString("\n")
	fmt.Fprintf(&b, "(%s, %s)\n",
		r.catalog.Count(len(strings.Fields(transcript)), local.KeyWordCountOne, local.KeyWordCount, lang),
		r.catalog.Count(len([]rune(transcript)), local.KeyCharacterCountOne, local.KeyCharacterCount, lang),
	)
	return b.String()
}

// Diagnosis prints every section of a result. Empty sections show the
// "no data" placeholder on their own.
func (r *Renderer) Diagnosis(result model.DiagnosisResult, lang local.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", r.t(local.KeyDiagnosis, lang))
	if strings.TrimSpace(result.Diagnosis) == "" {
		b.WriteString(r.t(local.KeyNoDataAvailable, lang))
	} else {
		b.WriteString(result.Diagnosis)
	}
	b.WriteString("\n")

	r.list(&b, local.KeyDiseases, result.Diseases, lang)
	r.list(&b, local.KeyExams, result.Exams, lang)
	r.list(&b, local.KeyMedications, result.Medications, lang)

	if result.Explanation != nil {
		r.explanation(&b, *result.Explanation, lang)
	}

	b.WriteString("\n")
	b.WriteString(r.t(local.KeyDisclaimer, lang))
	b.WriteString("\n")
	if strings.TrimSpace(result.Diagnosis) != "" {
		b.WriteString(r.t(local.KeyChatAvailable, lang))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) list(b *strings.Builder, titleKey string, items []string, lang local.Language) {
	fmt.Fprintf(b, "\n%s:\n", r.t(titleKey, lang))
	written := 0
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		b.WriteString(bullet + item + "\n")
		written++
	}
	if written == 0 {
		b.WriteString(bullet + r.t(local.KeyNoDataAvailable, lang) + "\n")
	}
}

func (r *Renderer) explanation(b *strings.Builder, e model.DiagnosisExplanation, lang local.Language) {
	p := message.NewPrinter(local.LocaleTag(lang))
	fmt.Fprintf(b, "\n%s (%s, %s):\n",
		r.t(local.KeyExplanation, lang),
		r.confidence(e.Level(), lang),
		p.Sprintf("%d%%", int(e.Confidence*100+0.5)),
	)
	if e.Reasoning != "" {
		b.WriteString("  " + e.Reasoning + "\n")
	}
	if len(e.KeySymptoms) > 0 {
		fmt.Fprintf(b, "  %s: %s\n", r.t(local.KeyKeySymptoms, lang), strings.Join(e.KeySymptoms, ", "))
	}
	if len(e.DifferentialDiagnoses) > 0 {
		fmt.Fprintf(b, "  %s: %s\n", r.t(local.KeyDifferentialDiagnoses, lang), strings.Join(e.DifferentialDiagnoses, ", "))
	}
	if e.RecommendationBasis != "" {
		fmt.Fprintf(b, "  %s: %s\n", r.t(local.KeyRecommendationBasis, lang), e.RecommendationBasis)
	}
}

func (r *Renderer) confidence(level model.ConfidenceLevel, lang local.Language) string {
	switch level {
	case model.ConfidenceHigh:
		return r.t(local.KeyHighConfidence, lang)
	case model.ConfidenceMedium:
		return r.t(local.KeyMediumConfidence, lang)
	default:
		return r.t(local.KeyLowConfidence, lang)
	}
}

func (r *Renderer) History(consultations []model.Consultation, lang local.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", r.t(local.KeyHistoryTitle, lang))
	if len(consultations) == 0 {
		b.WriteString(r.t(local.KeyNoConsultationsFound, lang))
		b.WriteString("\n")
		return b.String()
	}
	for i, c := range consultations {
		diagnosis := c.Result.Diagnosis
		if diagnosis == "" {
			diagnosis = r.t(local.KeyNoDataAvailable, lang)
		}
		fmt.Fprintf(&b, "%d. [%s] %s - %s\n", i+1, c.ID, r.date(c, lang), diagnosis)
	}
	return b.String()
}

// Consultation prints one stored consultation in full.
func (r *Renderer) Consultation(c model.Consultation, lang local.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n\n", c.ID, r.date(c, lang))
	b.WriteString(r.Transcript(c.Transcript, lang))
	b.WriteString("\n")
	b.WriteString(r.Diagnosis(c.Result, lang))
	return b.String()
}

func (r *Renderer) Stats(stats model.HistoryStats, lang local.Language) string {
	p := message.NewPrinter(local.LocaleTag(lang))
	var b strings.Builder
	b.WriteString(p.Sprintf("%s: %d\n", r.t(local.KeyConsultationsCount, lang), stats.TotalConsultations))
	if stats.LastConsultation != nil {
		fmt.Fprintf(&b, "%s: %s\n", r.t(local.KeyLastConsultation, lang), local.FormatDate(*stats.LastConsultation, lang))
	}
	if len(stats.MostCommonDiseases) > 0 {
		b.WriteString(r.t(local.KeyMostCommonDiagnoses, lang))
		b.WriteString("\n")
		for _, disease := range stats.MostCommonDiseases {
			b.WriteString(bullet + disease + "\n")
		}
	}
	return b.String()
}

func (r *Renderer) Chat(chat model.AIChat, lang local.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", r.t(local.KeyChatTitle, lang))
	for _, msg := range chat.Messages {
		b.WriteString(r.Message(msg, lang))
	}
	return b.String()
}

func (r *Renderer) Message(msg model.ChatMessage, lang local.Language) string {
	speaker := r.t(local.KeyAssistant, lang)
	if msg.Source == model.MessageSourceUser {
		speaker = r.t(local.KeyYou, lang)
	}
	return fmt.Sprintf("%s: %s\n", speaker, msg.Body)
}

// ErrorMessage maps any error to the single line shown to the user.
func (r *Renderer) ErrorMessage(err error, lang local.Language) string {
	return r.FailureMessage(err, "", lang)
}

// FailureMessage is ErrorMessage for a specific operation: errors that carry
// no message of their own are reported with failureKey when it is set.
func (r *Renderer) FailureMessage(err error, failureKey string, lang local.Language) string {
	var backendErr *model.BackendError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrUnsupported):
		return r.t(local.KeyAudioNotSupported, lang)
	case errors.Is(err, model.ErrPermissionDenied):
		return r.t(local.KeyRecordingPermission, lang)
	case errors.Is(err, model.ErrNotStarted):
		return r.t(local.KeyNotRecording, lang)
	case errors.Is(err, model.ErrAlreadyRecording):
		return r.t(local.KeyAlreadyRecording, lang)
	case errors.Is(err, model.ErrEmptyAudio):
		return r.t(local.KeyNoAudioDetected, lang)
	case errors.Is(err, model.ErrEmptyTranscript):
		return r.t(local.KeyNoTranscript, lang)
	case errors.Is(err, model.ErrDiagnosisInProgress):
		return r.t(local.KeyAnalysisInProgress, lang)
	case errors.Is(err, model.ErrChatBusy):
		return r.t(local.KeyChatBusy, lang)
	case errors.Is(err, model.ErrChatDoesNotExist), errors.Is(err, model.ErrEmptyMessage):
		return r.t(local.KeyChatError, lang)
	case errors.Is(err, model.ErrConsultationNotFound):
		return r.t(local.KeyConsultationNotFound, lang)
	case errors.As(err, &backendErr) && backendErr.Message != "":
		return backendErr.Message
	case failureKey != "":
		return r.t(failureKey, lang)
	case errors.Is(err, model.ErrConnectivity), errors.Is(err, model.ErrBackendRejected):
		return r.t(local.KeyProcessingError, lang)
	default:
		return r.t(local.KeyGenericError, lang)
	}
}

func (r *Renderer) date(c model.Consultation, lang local.Language) string {
	if c.Timestamp.IsZero() {
		return "-"
	}
	return local.FormatDate(c.Timestamp, lang)
}
