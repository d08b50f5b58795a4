// Package translate renders user-facing messages in the host locale.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer     *message.Printer
	printerOnce sync.Once
)

// fallback is used when the host reports no usable locale.
var fallback = language.AmericanEnglish

func setup() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("jello: locale: %v", err)
	}

	if len(locales) == 0 {
		printer = message.NewPrinter(fallback)
		return
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() style key in the host language.
func From(key message.Reference, args ...any) string {
	printerOnce.Do(setup)
	return printer.Sprintf(key, args...)
}
