package tabular

import (
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// decodeStrategies are tried in order; the first clean decode wins. The
// source files mix UTF-8 with legacy 8-bit encodings, so UTF-8 is attempted
// first and Windows-1252/Latin-1 cover the rest.
var decodeStrategies = []*charmap.Charmap{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// decodeText converts raw bytes to a UTF-8 string, falling back to legacy
// encodings when the payload is not valid UTF-8.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	var lastErr error
	for _, cm := range decodeStrategies {
		decoded, err := decodeWith(cm.NewDecoder(), data)
		if err != nil {
			lastErr = err
			continue
		}
		return decoded, nil
	}
	return "", eris.Wrapf(ErrCorrupt, "decode text: %v", lastErr)
}

func decodeWith(dec *encoding.Decoder, data []byte) (string, error) {
	out, err := dec.Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
