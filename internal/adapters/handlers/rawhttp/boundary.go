package rawhttp

import (
	"bytes"
	"mime"
	"simplefilehost/internal/core/domain"
	"strings"
)

const boundarySniffWindow = 200

// Boundary returns the multipart boundary of a request, from the Content-Type
// header when possible, else from the first delimiter line of the body.
func Boundary(req *Request) (string, error) {
	if ct, ok := req.HeaderValue("Content-Type"); ok {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			if b := params["boundary"]; b != "" {
				return b, nil
			}
		} else if b := boundaryParam(ct); b != "" {
			return b, nil
		}
	}
	return sniffBoundary(req.Body)
}

// boundaryParam is a lenient fallback for Content-Type values ParseMediaType rejects
func boundaryParam(ct string) string {
	i := strings.Index(strings.ToLower(ct), "boundary=")
	if i < 0 {
		return ""
	}
	b := ct[i+len("boundary="):]
	if j := strings.IndexByte(b, ';'); j >= 0 {
		b = b[:j]
	}
	return strings.Trim(strings.TrimSpace(b), `"`)
}

func sniffBoundary(body []byte) (string, error) {
	head := body
	if len(head) > boundarySniffWindow {
		head = head[:boundarySniffWindow]
	}
	i := bytes.Index(head, []byte("--"))
	if i < 0 {
		return "", domain.ErrMissingBoundary
	}
	line := head[i+2:]
	end := bytes.Index(line, []byte("\r\n"))
	if end <= 0 {
		return "", domain.ErrMissingBoundary
	}
	return string(line[:end]), nil
}
