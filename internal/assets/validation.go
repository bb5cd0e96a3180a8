package assets

import (
	"fmt"
	"strings"
)

// ValidateTemplateName checks that a template name is safe to use as a file
// name: not empty, no path separators and no dots.
func ValidateTemplateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTemplateName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidTemplateName, name)
	}
	return nil
}
