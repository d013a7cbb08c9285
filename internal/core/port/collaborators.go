package port

// MimeResolver guesses content types from file names
type MimeResolver interface {
	TypeByFilename(name string) string
	IsText(contentType string) bool
}

// TokenGenerator produces unguessable alphanumeric tokens
type TokenGenerator interface {
	Token(n int) (string, error)
}

// Archiver packs files and directories into a single zip file
type Archiver interface {
	ZipFile(src, dst string) error
	ZipDir(src, dst string) error
}

// Display shows the session url to the operator
type Display interface {
	ShowURL(url string)
}
