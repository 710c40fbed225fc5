// Package i18n translates jembatan's user-facing messages.
//
// Message IDs are the Indonesian sentences shown to users, so Indonesian
// needs no catalog and is returned unchanged. Catalogs for other languages
// are embedded from locales/{lang}/LC_MESSAGES/jembatan.po.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "jembatan"

// SourceLanguage is the language the message IDs are written in
const SourceLanguage = "id"

// AutoLanguage selects the language from the locale environment
const AutoLanguage = "auto"

var po *gotext.Locale

// Init loads the catalog for lang. An empty lang means Indonesian;
// AutoLanguage detects it from LANGUAGE, LC_ALL, LC_MESSAGES and LANG.
func Init(lang string) {
	if strings.EqualFold(lang, AutoLanguage) {
		lang = detectLanguage()
	}
	if lang == "" {
		lang = SourceLanguage
	}
	if isSource(lang) {
		po = nil
		return
	}

	// catalogs are per language, not per region
	if idx := strings.IndexAny(lang, "_-"); idx > 0 {
		lang = lang[:idx]
	}

	po = gotext.NewLocaleFSWithPath(strings.ToLower(lang), locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates msgid and formats it with args
func T(msgid string, args ...any) string {
	if po == nil {
		if len(args) == 0 {
			return msgid
		}
		return fmt.Sprintf(msgid, args...)
	}
	return po.Get(msgid, args...)
}

// N translates a message with plural forms
func N(singular, plural string, n int, args ...any) string {
	if po == nil {
		msg := plural
		if n == 1 {
			msg = singular
		}
		if len(args) == 0 {
			return msg
		}
		return fmt.Sprintf(msg, args...)
	}
	return po.GetN(singular, plural, n, args...)
}

func isSource(lang string) bool {
	lang = strings.ToLower(lang)
	return lang == SourceLanguage || strings.HasPrefix(lang, SourceLanguage+"_") || strings.HasPrefix(lang, SourceLanguage+"-")
}

// detectLanguage follows the GNU gettext variable order
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		if env == "LANGUAGE" {
			val = strings.SplitN(val, ":", 2)[0]
		}
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return SourceLanguage
}
