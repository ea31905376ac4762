package config

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// CharsetReader is plugged into xml.Decoder so descriptions saved by
// older exporters with a latin-1/windows-1252 declaration still decode.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" || label == "utf-8" || label == "utf8" {
		return input, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to find encoding %q", label)
	}
	if enc == unicode.UTF8 {
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}
