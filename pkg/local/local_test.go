package local

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iamvkosarev/mednote/pkg/logging"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	catalog := NewCatalog(logging.Discard())

	assert.Equal(t, "Diagnosis", catalog.Translate(KeyDiagnosis, Eng))
	assert.Equal(t, "Diagnóstico", catalog.Translate(KeyDiagnosis, Por))
	assert.Equal(t, "Diagnóstico", catalog.Translate(KeyDiagnosis, Language("xx")))
}

func TestTranslateUnknownKeyEchoesKeyAndWarns(t *testing.T) {
	var buf bytes.Buffer
	catalog := NewCatalog(logging.NewWithWriter(&buf, "warn"))

	for _, lang := range []Language{Por, Eng, Language("xx")} {
		assert.Equal(t, "unknown_key", catalog.Translate("unknown_key", lang))
	}
	assert.Contains(t, buf.String(), "translation key not found")
	assert.Contains(t, buf.String(), "unknown_key")
}

func TestTranslateFallsBackWhenTranslationMissing(t *testing.T) {
	catalog := NewCatalogWithSets(map[string]TextSet{
		"onlyPrimary": NewSet("somente português"),
		"emptyEnglish": NewSet("vazio", NewTrans(Eng, "")),
	}, logging.Discard())

	assert.Equal(t, "somente português", catalog.Translate("onlyPrimary", Eng))
	assert.Equal(t, "vazio", catalog.Translate("emptyEnglish", Eng))
}

func TestCatalogFormatAndCount(t *testing.T) {
	catalog := NewCatalog(logging.Discard())

	assert.Equal(t, "1 word", catalog.Count(1, KeyWordCountOne, KeyWordCount, Eng))
	assert.Equal(t, "2 words", catalog.Count(2, KeyWordCountOne, KeyWordCount, Eng))
	assert.Equal(t, "1 caractere", catalog.Count(1, KeyCharacterCountOne, KeyCharacterCount, Por))
	assert.Equal(t, "0 caracteres", catalog.Count(0, KeyCharacterCountOne, KeyCharacterCount, Por))
	assert.Equal(t, "1.234 palavras", catalog.Format(KeyWordCount, Por, 1234))
	assert.Equal(t, "1,234 words", catalog.Format(KeyWordCount, Eng, 1234))
	assert.Equal(t, "missingKey", catalog.Format("missingKey", Eng, 1))
}

func TestTextSetFormat(t *testing.T) {
	set := NewSet("%d consultas", NewTrans(Eng, "%d consultations"))
	assert.Equal(t, "3 consultations", set.Format(Eng, 3))
	assert.Equal(t, "3 consultas", set.Format(Por, 3))
}

func TestParseAndToggleLanguage(t *testing.T) {
	assert.Equal(t, Eng, ParseLanguage(" EN "))
	assert.Equal(t, Por, ParseLanguage("pt"))
	assert.Equal(t, Por, ParseLanguage("fr"))
	assert.Equal(t, Eng, Por.Toggle())
	assert.Equal(t, Por, Eng.Toggle())
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, Eng, DetectLanguage("patient reports fever and cough", Por))
	assert.Equal(t, Por, DetectLanguage("estou com febre e tosse", Eng))
	assert.Equal(t, Eng, DetectLanguage("   ", Eng))
	assert.Equal(t, Por, DetectLanguage("no keywords here", Eng))
}

func TestFormatDate(t *testing.T) {
	date := time.Date(2024, time.February, 5, 14, 7, 0, 0, time.UTC)

	assert.Equal(t, "Feb 5, 2024, 02:07 PM", FormatDate(date, Eng))

	pt := FormatDate(date, Por)
	assert.True(t, strings.HasPrefix(pt, "05 de "), pt)
	assert.True(t, strings.HasSuffix(pt, " de 2024 14:07"), pt)
	assert.Contains(t, strings.ToLower(pt), "fev")
}

func TestLocaleTag(t *testing.T) {
	assert.Equal(t, "en-US", LocaleTag(Eng).String())
	assert.Equal(t, "pt-BR", LocaleTag(Por).String())
}
