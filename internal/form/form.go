// Package form decodes multipart/form-data bodies without going through a
// text codec, so binary payloads (images, PDFs) survive byte-for-byte.
package form

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// File is a decoded binary field.
type File struct {
	Data      []byte
	MediaType string
}

// Form holds the decoded parts of one submission, keyed by field name.
type Form struct {
	Files  map[string]File
	Fields map[string]string
}

var (
	crlf       = []byte("\r\n")
	headerSep  = []byte("\r\n\r\n")
	closeDelim = []byte("--")
)

// Boundary extracts the boundary token from a multipart/form-data
// Content-Type header value. Client-added quoting around the token is
// stripped by the media-type parser, matching what the client then uses
// unquoted in the body.
func Boundary(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q: %w", contentType, err)
	}
	if mediaType != "multipart/form-data" {
		return "", fmt.Errorf("unsupported content type %q, want multipart/form-data", mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", errors.New("no boundary found in content type")
	}
	return boundary, nil
}

// Decode parses a raw multipart body using the declared boundary.
//
// Parts are delimited strictly by the full "--boundary" token with its
// required surrounding line terminators; payload bytes that merely resemble
// header or boundary syntax are left untouched. Any malformed part fails the
// whole decode, no partial result is returned.
func Decode(body []byte, boundary string) (*Form, error) {
	if boundary == "" {
		return nil, errors.New("empty multipart boundary")
	}

	delim := []byte("--" + boundary)
	segments := bytes.Split(body, delim)
	if len(segments) < 2 {
		return nil, fmt.Errorf("multipart boundary %q not found in body", boundary)
	}

	out := &Form{
		Files:  map[string]File{},
		Fields: map[string]string{},
	}

	// segments[0] is the preamble (normally empty), the last segment follows
	// the closing "--boundary--" marker.
	closed := false
	for _, seg := range segments[1:] {
		if bytes.HasPrefix(seg, closeDelim) {
			closed = true
			break
		}
		if err := decodePart(seg, out); err != nil {
			return nil, err
		}
	}
	if !closed {
		return nil, errors.New("multipart body has no closing boundary marker")
	}

	return out, nil
}

// decodePart handles one segment between two boundary delimiters: a leading
// CRLF, a header block, a blank line, the payload, and the CRLF that belongs
// to the following delimiter.
func decodePart(seg []byte, out *Form) error {
	if !bytes.HasPrefix(seg, crlf) || !bytes.HasSuffix(seg, crlf) {
		return errors.New("malformed multipart part: boundary not on its own line")
	}
	seg = seg[len(crlf) : len(seg)-len(crlf)]

	sep := bytes.Index(seg, headerSep)
	if sep < 0 {
		return errors.New("malformed multipart part: missing blank line after headers")
	}
	headers, payload := seg[:sep], seg[sep+len(headerSep):]

	name, filename, contentType, err := parseHeaders(headers)
	if err != nil {
		return err
	}

	if contentType != "" || filename != "" {
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		// Copy the payload: it aliases the caller's body buffer.
		out.Files[name] = File{Data: bytes.Clone(payload), MediaType: contentType}
		return nil
	}

	out.Fields[name] = string(payload)
	return nil
}

// parseHeaders scans a part's header block for Content-Disposition (which must
// carry a field name) and an optional Content-Type.
func parseHeaders(block []byte) (name, filename, contentType string, err error) {
	for _, line := range bytes.Split(block, crlf) {
		key, value, ok := strings.Cut(string(line), ":")
		if !ok {
			return "", "", "", fmt.Errorf("malformed part header line %q", string(line))
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "content-disposition":
			_, params, perr := mime.ParseMediaType(value)
			if perr != nil {
				return "", "", "", fmt.Errorf("invalid Content-Disposition %q: %w", value, perr)
			}
			name = params["name"]
			filename = params["filename"]
		case "content-type":
			contentType = value
		}
	}
	if name == "" {
		return "", "", "", errors.New("multipart part has no field name")
	}
	return name, filename, contentType, nil
}
