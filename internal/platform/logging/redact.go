package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// secretFields are attribute keys whose values never reach a log line,
// whatever their content. Source headers such as X-Api-Key are logged under
// their lowercased name.
var secretFields = []string{
	"password", "token", "access_token", "api_key", "apiKey", "x-api-key",
	"authorization", "auth", "cookie", "credentials",
}

// secretPrefixes catch families such as secret_key or private_key.
var secretPrefixes = []string{"secret", "private"}

// secretValues match values that are secrets wherever they appear.
var secretValues = []*regexp.Regexp{
	// JSON web tokens.
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Authorization header values.
	regexp.MustCompile(`(?i)^bearer\s+.+$`),
	// Source base URLs carrying user:password@host.
	regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://[^/\s:@]+:[^/\s@]+@`),
}

// DefaultRedactOptions returns the masq options applied to every log output.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(secretFields)+len(secretPrefixes)+len(secretValues))

	for _, f := range secretFields {
		opts = append(opts, masq.WithFieldName(f))
	}

	for _, p := range secretPrefixes {
		opts = append(opts, masq.WithFieldPrefix(p))
	}

	for _, re := range secretValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr func redacting the defaults plus
// opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
