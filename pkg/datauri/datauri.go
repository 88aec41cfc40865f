// Package datauri parses and builds RFC 2397 data URIs, the self-describing
// encoding used for document content and profile pictures.
package datauri

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const prefix = "data:"

// URI is a decoded data URI.
type URI struct {
	MimeType string
	Data     []byte
}

// Size returns the decoded payload length in bytes.
func (u URI) Size() int64 { return int64(len(u.Data)) }

// Encode builds a base64 data URI for the given payload.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return prefix + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Parse decodes a base64 data URI. Plain (non-base64) data URIs are not
// accepted: document upload always produces base64 payloads.
func Parse(s string) (URI, error) {
	if !strings.HasPrefix(s, prefix) {
		return URI{}, fmt.Errorf("datauri: missing %q prefix", prefix)
	}
	rest := s[len(prefix):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return URI{}, fmt.Errorf("datauri: missing payload separator")
	}
	meta, payload := rest[:comma], rest[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return URI{}, fmt.Errorf("datauri: only base64 payloads are supported")
	}
	mimeType := strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "text/plain"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return URI{}, fmt.Errorf("datauri: decode payload: %w", err)
	}
	return URI{MimeType: mimeType, Data: data}, nil
}

// IsWellFormed reports whether s parses as a supported data URI.
func IsWellFormed(s string) bool {
	_, err := Parse(s)
	return err == nil
}
