package transcript

import "errors"

var (
	// ErrArtifactNotFound indicates no JSON artifact matched the input's
	// base name or the generic pattern in the output directory.
	ErrArtifactNotFound = errors.New("transcript artifact not found")

	// ErrSchema indicates the artifact could not be decoded or lacks a
	// segment list.
	ErrSchema = errors.New("transcript schema invalid")

	// ErrEmptyResult indicates the artifact existed and parsed but held no
	// usable segments.
	ErrEmptyResult = errors.New("no usable transcript segments")
)
