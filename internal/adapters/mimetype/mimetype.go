package mimetype

import (
	"mime"
	"path/filepath"
	"simplefilehost/internal/core/port"
	"strings"
)

const fallback = "application/octet-stream"

// known pins the common extensions so results do not depend on the host mime database
var known = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".txt":  "text/plain",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".zip":  "application/zip",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".xml":  "text/xml",
	".log":  "text/plain",
}

type resolver struct{}

func NewResolver() port.MimeResolver {
	return resolver{}
}

func (resolver) TypeByFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return fallback
	}
	if t, ok := known[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return fallback
}

func (resolver) IsText(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "text/")
}
