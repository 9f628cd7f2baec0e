package local

import (
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

const (
	layoutEng = "Jan 2, 2006, 03:04 PM"
	layoutPor = "02 de Jan de 2006 15:04"
)

// LocaleTag is the fixed mapping from the language selector to a locale.
func LocaleTag(lang Language) language.Tag {
	if lang == Eng {
		return language.AmericanEnglish
	}
	return language.BrazilianPortuguese
}

func FormatDate(t time.Time, lang Language) string {
	if lang == Eng {
		return monday.Format(t, layoutEng, monday.LocaleEnUS)
	}
	return monday.Format(t, layoutPor, monday.LocalePtBR)
}
