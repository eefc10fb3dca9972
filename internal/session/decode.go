package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedInput is returned by Decode when stdin is not a well-formed
// session payload.
var ErrMalformedInput = errors.New("malformed session input")

// wireInput mirrors Input with pointers so that missing required fields can
// be told apart from empty ones.
type wireInput struct {
	Cwd            *string        `json:"cwd"`
	TranscriptPath *string        `json:"transcript_path"`
	Model          *wireModel     `json:"model"`
	ContextWindow  *ContextWindow `json:"context_window"`
}

type wireModel struct {
	DisplayName *string `json:"display_name"`
}

// Decode reads exactly one JSON object from r and validates that cwd,
// transcript_path and model.display_name are present. Trailing data other
// than whitespace is rejected.
func Decode(r io.Reader) (*Input, error) {
	dec := json.NewDecoder(r)

	var w wireInput
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after input object", ErrMalformedInput)
	}

	switch {
	case w.Cwd == nil:
		return nil, missingField("cwd")
	case w.TranscriptPath == nil:
		return nil, missingField("transcript_path")
	case w.Model == nil:
		return nil, missingField("model")
	case w.Model.DisplayName == nil:
		return nil, missingField("model.display_name")
	}

	return &Input{
		Cwd:            *w.Cwd,
		TranscriptPath: *w.TranscriptPath,
		Model:          Model{DisplayName: *w.Model.DisplayName},
		ContextWindow:  w.ContextWindow,
	}, nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: missing field %q", ErrMalformedInput, name)
}
