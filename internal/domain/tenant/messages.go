package tenant

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/ahardinathillc/whippet/internal/domain"
)

// Message keys for root-tenant guard violations. The key doubles as the
// English text.
const (
	msgRootEstablished = "root tenant already established"
	msgRootDeactivate  = "the root tenant cannot be deactivated"
	msgRootDelete      = "the root tenant cannot be deleted"
)

var (
	supported = []language.Tag{language.English, language.German}
	messages  = newCatalog()
	matcher   = language.NewMatcher(supported)
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range []string{msgRootEstablished, msgRootDeactivate, msgRootDelete} {
		_ = b.SetString(language.English, key, key)
	}
	_ = b.SetString(language.German, msgRootEstablished, "der Stamm-Mandant wurde bereits festgelegt")
	_ = b.SetString(language.German, msgRootDeactivate, "der Stamm-Mandant kann nicht deaktiviert werden")
	_ = b.SetString(language.German, msgRootDelete, "der Stamm-Mandant kann nicht gelöscht werden")
	return b
}

// Printer returns a message printer for the given BCP 47 locale. Unknown or
// unparsable locales fall back to English.
func Printer(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	_, idx, _ := matcher.Match(tag)
	return message.NewPrinter(supported[idx], message.Catalog(messages))
}

var defaultPrinter = Printer("en")

// GuardError reports a rejected root-tenant operation. It matches
// domain.ErrInvalidOperation under errors.Is.
type GuardError struct {
	TenantID uuid.UUID
	key      string
}

func newGuardError(key string, id uuid.UUID) *GuardError {
	return &GuardError{TenantID: id, key: key}
}

func (e *GuardError) Error() string { return e.Localize(defaultPrinter) }

func (e *GuardError) Unwrap() error { return domain.ErrInvalidOperation }

// Localize renders the message with p.
func (e *GuardError) Localize(p *message.Printer) string {
	return p.Sprintf(message.Key(e.key, e.key))
}

// Localize renders err with p when it is a guard violation, and falls back
// to err.Error() otherwise.
func Localize(err error, p *message.Printer) string {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge.Localize(p)
	}
	return err.Error()
}
