package mediafile

import "fmt"

// Extraction failure kinds. The scanner treats all of them as fail-soft: the
// file is counted and logged, and the pass moves on.
const (
	ErrKindCorrupt     = "corrupt"
	ErrKindUnsupported = "unsupported_feature"
	ErrKindUnreadable  = "unreadable"
)

// ExtractError wraps an extractor failure with the file it came from and a
// kind the scan report can aggregate on.
type ExtractError struct {
	Kind string
	Path string
	Err  error
}

func (e *ExtractError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

func Corrupt(path string, err error) error {
	return &ExtractError{Kind: ErrKindCorrupt, Path: path, Err: err}
}

func Unsupported(path string, err error) error {
	return &ExtractError{Kind: ErrKindUnsupported, Path: path, Err: err}
}

func Unreadable(path string, err error) error {
	return &ExtractError{Kind: ErrKindUnreadable, Path: path, Err: err}
}
