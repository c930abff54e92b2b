// SPDX-License-Identifier: MPL-2.0

package npmpublish

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToCamelCase splits s on every character that is neither a letter nor a
// digit and joins the parts with their first letter upper-cased. Letters
// inside a part keep their case: "js-main_lib" becomes "JsMainLib" and
// "jsMain" becomes "JsMain".
func ToCamelCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, part := range parts {
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	return b.String()
}

// ToLowerCamelCase is ToCamelCase with the first letter lower-cased.
func ToLowerCamelCase(s string) string {
	camel := ToCamelCase(s)
	if camel == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(camel)
	return string(unicode.ToLower(r)) + camel[size:]
}
