package core

import (
	"errors"
	"fmt"
)

type Phase string

const (
	PhaseExtraction Phase = "extraction"
	PhaseRender     Phase = "render"
)

var (
	ErrMountPointNotFound   = errors.New("mount point not found")
	ErrMultipleMountPoints  = errors.New("more than one mount point")
	ErrMalformedContainerID = errors.New("mount point container id must be a string literal")
	ErrMountPointChildren   = errors.New("mount point must wrap exactly one child")
	ErrExecutionTimeout     = errors.New("script execution timed out")
	ErrUnknownPlaceholder   = errors.New("unknown placeholder")
)

type PhaseError interface {
	error
	Phase() Phase
}

// ExtractionError aborts the build step of the module at Path.
type ExtractionError struct {
	Path   string
	Reason string
	Err    error
}

func NewExtractionError(path, reason string, err error) *ExtractionError {
	return &ExtractionError{Path: path, Reason: reason, Err: err}
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Phase() Phase { return PhaseExtraction }

// RenderError aborts the whole build; Entry names the entry point whose
// page could not be rendered.
type RenderError struct {
	Entry string
	Err   error
}

func NewRenderError(entry string, err error) *RenderError {
	return &RenderError{Entry: entry, Err: err}
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render entry %q: %v", e.Entry, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Phase() Phase { return PhaseRender }

// PhaseOf returns the phase of the first phase error in err's chain.
func PhaseOf(err error) (Phase, bool) {
	var pe PhaseError
	if errors.As(err, &pe) {
		return pe.Phase(), true
	}
	return "", false
}

// EntryName returns the entry a render error aborted, if any.
func EntryName(err error) string {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Entry
	}
	return ""
}

// ErrorPath returns the module an extraction error was raised for, if any.
func ErrorPath(err error) string {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Path
	}
	return ""
}
