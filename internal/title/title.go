// Package title turns user-supplied note titles into safe storage keys.
package title

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pinnote/internal/apperr"
)

// Reserved lists the characters that may not appear in a title because
// they are path separators or otherwise illegal in file names.
const Reserved = `\/:*?"<>|`

// Sanitize removes every reserved character from raw. It never fails;
// modified reports whether anything was removed. An all-reserved input
// yields "", which callers must reject.
func Sanitize(raw string) (safe string, modified bool) {
	safe = strings.Map(func(r rune) rune {
		if strings.ContainsRune(Reserved, r) {
			return -1
		}
		return r
	}, raw)
	return safe, safe != raw
}

// IsValid reports whether t is non-empty and free of reserved characters.
func IsValid(t string) bool {
	return t != "" && !strings.ContainsAny(t, Reserved)
}

var noReserved = validation.NewStringRuleWithError(
	func(s string) bool { return !strings.ContainsAny(s, Reserved) },
	validation.NewError("validation_title_reserved", "must not contain any of "+Reserved),
)

// Validate returns an error wrapping apperr.ErrInvalidTitle when t is not a
// usable title.
func Validate(t string) error {
	if err := validation.Validate(t, validation.Required, noReserved); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidTitle, err)
	}
	return nil
}

