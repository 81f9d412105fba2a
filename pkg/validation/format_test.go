package validation

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := map[string]bool{
		"pretty":   true,
		"json":     true,
		"":         false,
		"csv":      false,
		"table":    false,
		"JSON":     false,
		"Pretty":   false,
		" pretty ": false,
		"json\n":   false,
	}
	for format, valid := range tests {
		err := ValidateOutputFormat(format)
		if valid && err != nil {
			t.Errorf("ValidateOutputFormat(%q) unexpected error = %v", format, err)
		}
		if !valid && err == nil {
			t.Errorf("ValidateOutputFormat(%q) expected error but got none", format)
		}
	}
}

func TestValidateOutputFormatNamesChoices(t *testing.T) {
	err := ValidateOutputFormat("xml")
	if err == nil {
		t.Fatal("expected an error for xml")
	}
	for _, want := range []string{"pretty", "json", "xml"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
