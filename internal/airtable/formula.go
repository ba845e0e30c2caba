package airtable

import (
	"fmt"
	"strings"
)

var formulaStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// QuoteString returns `value` as a double quoted formula string literal.
func QuoteString(value string) string {
	return `"` + formulaStringEscaper.Replace(value) + `"`
}

// EqualsFormula returns a filterByFormula expression matching records whose
// `field` is exactly `value` (case-sensitive).
func EqualsFormula(field, value string) string {
	return fmt.Sprintf("{%s} = %s", field, QuoteString(value))
}
