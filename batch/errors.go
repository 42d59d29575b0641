package batch

import (
	"errors"
	"fmt"
)

// Kind classifies batch errors.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration is a bad or missing source directory or setting.
	KindConfiguration
	// KindIO is an output directory or artifact write failure.
	KindIO
	// KindExtraction is a table detection failure.
	KindExtraction
	// KindRender is a PDF to image failure.
	KindRender
	// KindRecognition is an OCR failure.
	KindRecognition
)

// String returns the name of the error kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindIO:
		return "IOError"
	case KindExtraction:
		return "ExtractionError"
	case KindRender:
		return "RenderError"
	case KindRecognition:
		return "RecognitionError"
	default:
		return "UnknownError"
	}
}

// Error is a classified batch error.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "extract tables"
	Path string // file or directory involved, if any
	Err  error  // underlying error
}

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrIO            = &Error{Kind: KindIO}
	ErrExtraction    = &Error{Kind: KindExtraction}
	ErrRender        = &Error{Kind: KindRender}
	ErrRecognition   = &Error{Kind: KindRecognition}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels: a target carrying only a Kind matches every error
// of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// newError wraps err unless it is already classified.
func newError(kind Kind, op, path string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// errorf creates a classified error with a formatted cause.
func errorf(kind Kind, op, path, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}
