package solver

import "errors"

// ErrModelInvalid reports that the model builder could not produce a valid
// model, which indicates a bug in the model builder rather than bad input. A
// MODEL_INVALID status from the solver itself is returned as an envelope
// schedule instead.
var ErrModelInvalid = errors.New("solver rejected the model")

// ErrExtraction reports that a solved model violated an invariant the
// extractor relies on, which indicates a bug in the constraint model.
var ErrExtraction = errors.New("schedule extraction failed")
