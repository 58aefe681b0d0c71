package chat

import "regexp"

// NamePattern is the strict pattern tool names and message sources must
// match. Providers reject or mangle anything outside it.
const NamePattern = `^[A-Za-z0-9_-]{1,64}$`

const maxNameLength = 64

var validName = regexp.MustCompile(NamePattern)

// AssertValidName returns an InvalidNameError unless name matches
// NamePattern exactly. Use for caller-supplied configuration.
func AssertValidName(name string) error {
	if !validName.MatchString(name) {
		return &InvalidNameError{Name: name}
	}
	return nil
}

// NormalizeName coerces an arbitrary string into a valid name by replacing
// disallowed characters with underscores and truncating to 64 characters.
// Use only for names returned by a provider, never for configuration.
func NormalizeName(name string) string {
	if name == "" {
		return "_"
	}
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			b[i] = '_'
		}
	}
	if len(b) > maxNameLength {
		b = b[:maxNameLength]
	}
	return string(b)
}
