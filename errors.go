package frame

import "fmt"

// ErrIncompleteFrameData is returned by Complete when a required
// section never arrived before the TOC was exhausted.
type ErrIncompleteFrameData struct {
	Field string
}

func (e *ErrIncompleteFrameData) Error() string {
	return fmt.Sprintf("frame: incomplete frame data, missing %s", e.Field)
}

// ErrUnexpectedGroupKind is returned when the loader encounters a TOC
// entry whose kind it does not know how to dispatch.
type ErrUnexpectedGroupKind struct {
	Kind string
}

func (e *ErrUnexpectedGroupKind) Error() string {
	return fmt.Sprintf("frame: unexpected group kind %s", e.Kind)
}
