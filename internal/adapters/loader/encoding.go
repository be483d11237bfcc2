package loader

import (
	"bytes"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

const (
	encodingUTF8  = "utf-8"
	encodingASCII = "ascii"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type fallbackEncoding struct {
	name string
	enc  encoding.Encoding
}

// fallbackEncodings are tried in order when the detected charset fails.
var fallbackEncodings = []fallbackEncoding{
	{"latin-1", charmap.ISO8859_1},
	{"iso-8859-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

// DetectEncoding guesses the charset of data from its first sampleBytes
// bytes. Low-confidence or failed detection yields utf-8.
func DetectEncoding(data []byte, sampleBytes int, minConfidence float64) (string, float64) {
	sample := data
	if sampleBytes > 0 && len(sample) > sampleBytes {
		sample = sample[:sampleBytes]
	}

	if len(sample) == 0 || bytes.HasPrefix(sample, utf8BOM) {
		return encodingUTF8, 1
	}

	if isASCII(sample) {
		return encodingASCII, 1
	}

	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || res == nil || res.Charset == "" {
		return encodingUTF8, 0
	}

	confidence := float64(res.Confidence) / 100
	if confidence < minConfidence {
		return encodingUTF8, confidence
	}

	return strings.ToLower(res.Charset), confidence
}

// decodeText converts data to UTF-8, trying the detected charset first and
// the fallbacks after it. It returns the text and the encoding used.
func (l *Loader) decodeText(data []byte) (string, string, error) {
	name, confidence := DetectEncoding(data, l.opts.EncodingSampleBytes, l.opts.EncodingMinConfidence)

	l.logger.Debug("encoding detected",
		slog.String("encoding", name),
		slog.Float64("confidence", confidence),
	)

	if text, ok := decodeAs(name, data); ok {
		return text, name, nil
	}

	for _, fb := range fallbackEncodings {
		l.logger.Warn("encoding failed, trying fallback",
			slog.String("encoding", name),
			slog.String("fallback", fb.name),
		)

		if text, ok := decodeWith(fb.enc, data); ok {
			return text, fb.name, nil
		}
	}

	return "", "", domain.NewValidationError("file", "could not determine file encoding")
}

func decodeAs(name string, data []byte) (string, bool) {
	if name == encodingUTF8 || name == encodingASCII || name == "us-ascii" {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", false
		}

		return string(data), true
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", false
	}

	return decodeWith(enc, data)
}

func decodeWith(enc encoding.Encoding, data []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}

	return strings.TrimPrefix(string(out), "\ufeff"), true
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}

	return true
}
