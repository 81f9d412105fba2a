// Package validation checks user input before it reaches the pricing pipeline.
package validation

import (
	"fmt"

	"github.com/iwvelando/pricing-advisor/pkg/constants"
)

// ValidateOutputFormat accepts the CLI rendering modes, case-sensitively.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("unsupported output format %q: expected %s or %s",
		format, constants.OutputFormatPretty, constants.OutputFormatJSON)
}
