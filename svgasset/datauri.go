package svgasset

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var ErrMalformedDataURI = errors.New("malformed data uri")

// IsBlobURL reports whether u is a session-local blob: reference
func IsBlobURL(u string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(u)), "blob:")
}

// IsDataURI reports whether u embeds its payload
func IsDataURI(u string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(u)), "data:")
}

// IsSVGDataURI reports whether u is an inline SVG data uri
func IsSVGDataURI(u string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(u)), "data:image/svg+xml")
}

// IsSVGURL reports whether u points at SVG content, inline or remote
func IsSVGURL(u string) bool {
	if IsSVGDataURI(u) {
		return true
	}
	if IsDataURI(u) || IsBlobURL(u) {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return strings.HasSuffix(strings.ToLower(u), ".svg")
	}
	return strings.EqualFold(path.Ext(parsed.Path), ".svg")
}

// DecodeDataURI splits a data uri into its media type and decoded payload
func DecodeDataURI(uri string) (string, []byte, error) {
	uri = strings.TrimSpace(uri)
	if !IsDataURI(uri) {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrMalformedDataURI)
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrMalformedDataURI)
	}

	meta := uri[len("data:"):comma]
	payload := uri[comma+1:]

	params := strings.Split(meta, ";")
	mime := strings.ToLower(strings.TrimSpace(params[0]))
	if mime == "" {
		mime = "text/plain"
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
			}
		}
		return mime, data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
	}
	return mime, []byte(text), nil
}

// EncodeSVGDataURI wraps markup into a base64 data uri
func EncodeSVGDataURI(markup string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(markup))
}
