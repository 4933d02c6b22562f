package report

import "errors"

// Sentinel kinds for document errors.
var (
	// ErrRender means no document was produced. Nothing is archived.
	ErrRender = errors.New("report rendering failed")
	// ErrArchive means a rendered document could not be written to the reports directory.
	ErrArchive = errors.New("report archiving failed")
)
