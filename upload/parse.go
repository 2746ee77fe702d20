package upload

import (
	"net/url"
	"strconv"
	"strings"
)

// parseOffset parses an Upload-Offset header value. The value may be a
// comma-separated list (tus multi-offset extension); only the first element
// is authoritative. Empty or non-numeric input yields ok == false, which is
// distinct from a legitimate zero offset.
func parseOffset(value string) (int64, bool) {
	first := strings.TrimSpace(strings.SplitN(value, ",", 2)[0])
	if first == "" {
		return 0, false
	}

	offset, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, false
	}
	return offset, true
}

// normalizeUploadURL cleans an upload URL returned by the creation endpoint.
// Anything after a comma is an alternate value and is dropped. Servers may
// return path-only locations, in which case scheme and host are inherited
// from the configured base endpoint.
func normalizeUploadURL(raw string, base string) (string, error) {
	trimmed := strings.TrimSpace(strings.SplitN(raw, ",", 2)[0])
	if trimmed == "" {
		return "", nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", err
	}

	if parsed.Scheme != "" && parsed.Host != "" {
		return parsed.String(), nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		parsed.Scheme = baseURL.Scheme
	}
	if parsed.Host == "" {
		parsed.Host = baseURL.Host
	}
	return parsed.String(), nil
}
