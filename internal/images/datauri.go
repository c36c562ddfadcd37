package images

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

var dataURIPrefix = regexp.MustCompile(`^data:image/([a-zA-Z]+);base64,`)

// IsDataURI reports whether ref is an embedded base64 image
func IsDataURI(ref string) bool {
	return dataURIPrefix.MatchString(ref)
}

// DataURI is a decoded embedded image
type DataURI struct {
	Subtype string // png, jpeg, webp, ...
	Data    []byte
}

// ContentType returns the MIME type of the image
func (d DataURI) ContentType() string {
	return "image/" + d.Subtype
}

// Ext returns the file extension used when storing the image
func (d DataURI) Ext() string {
	if d.Subtype == "jpeg" {
		return "jpg"
	}
	return d.Subtype
}

// DecodeDataURI decodes a data:image/<type>;base64, reference
func DecodeDataURI(ref string) (*DataURI, error) {
	m := dataURIPrefix.FindStringSubmatch(ref)
	if m == nil {
		return nil, fmt.Errorf("not a base64 image reference")
	}

	payload := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, ref[len(m[0]):])

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 image: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty base64 image")
	}

	return &DataURI{Subtype: strings.ToLower(m[1]), Data: data}, nil
}
