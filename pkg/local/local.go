package local

import (
	"strings"

	"golang.org/x/text/message"
)

type Language string

const (
	Por = Language("pt")
	Eng = Language("en")

	// Primary is the language every TextSet carries as its default.
	Primary = Por
)

// StorageKey is where the selected language is persisted.
const StorageKey = "mednote_language"

var SupportedLanguages = []Language{Por, Eng}

type Localization struct {
	language Language
	text     string
}

type TextSet struct {
	Default          string
	translationsText map[Language]string
}

func NewTrans(language Language, text string) Localization {
	return Localization{
		language: language,
		text:     text,
	}
}

func NewSet(defaultText string, localizations ...Localization) TextSet {
	set := TextSet{
		Default:          defaultText,
		translationsText: make(map[Language]string),
	}
	for _, localization := range localizations {
		set.translationsText[localization.language] = localization.text
	}
	return set
}

func (l TextSet) Text(language Language) string {
	if text, ok := l.translationsText[language]; ok && text != "" {
		return text
	}
	return l.Default
}

// Format fills the text's verbs using the language's number formatting.
func (l TextSet) Format(language Language, a ...any) string {
	return message.NewPrinter(LocaleTag(language)).Sprintf(l.Text(language), a...)
}

// ParseLanguage maps free-form input to a supported language, primary otherwise.
func ParseLanguage(s string) Language {
	candidate := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, lang := range SupportedLanguages {
		if lang == candidate {
			return lang
		}
	}
	return Primary
}

func (l Language) Toggle() Language {
	if l == Eng {
		return Por
	}
	return Eng
}

var (
	portugueseWords = []string{"dor", "febre", "tosse", "sinto", "estou", "tenho", "doutor"}
	englishWords    = []string{"pain", "fever", "cough", "feel", "have", "doctor"}
)

// DetectLanguage guesses the language of a transcript by keyword counts.
// English wins only with a strictly higher score.
func DetectLanguage(text string, fallback Language) Language {
	lowerText := strings.ToLower(strings.TrimSpace(text))
	if lowerText == "" {
		return fallback
	}
	var ptScore, enScore int
	for _, word := range portugueseWords {
		if strings.Contains(lowerText, word) {
			ptScore++
		}
	}
	for _, word := range englishWords {
		if strings.Contains(lowerText, word) {
			enScore++
		}
	}
	if enScore > ptScore {
		return Eng
	}
	return Por
}
