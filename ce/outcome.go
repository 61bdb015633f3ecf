package ce

// OutcomeType classifies what a submitted sentence did to the graph.
type OutcomeType int

const (
	// OutcomeNoMatch indicates the sentence matched none of the four CE
	// productions; the caller may try question parsing or NL guessing next
	OutcomeNoMatch OutcomeType = iota
	// OutcomeNewConcept indicates a concept was conceptualised
	OutcomeNewConcept
	// OutcomeEditConcept indicates an existing concept was modified
	OutcomeEditConcept
	// OutcomeNewInstance indicates an instance was created (or, for an
	// idempotent re-creation, the existing instance was returned)
	OutcomeNewInstance
	// OutcomeEditInstance indicates an existing instance was modified
	OutcomeEditInstance
	// OutcomeFailed indicates the sentence matched a production but could
	// not be fully applied (unknown type, duplicate concept, ...)
	OutcomeFailed
)

// String returns the outcome type as a short stable label.
func (t OutcomeType) String() string {
	switch t {
	case OutcomeNewConcept:
		return "new_concept"
	case OutcomeEditConcept:
		return "edit_concept"
	case OutcomeNewInstance:
		return "new_instance"
	case OutcomeEditInstance:
		return "edit_instance"
	case OutcomeFailed:
		return "failed"
	default:
		return "no_match"
	}
}

// Outcome is the structured result of submitting one sentence.
// Failures are carried as values; nothing panics across the Submit boundary.
type Outcome struct {
	Type     OutcomeType
	Sentence string    // raw input as submitted
	Text     string    // canonical CE of the touched entity, or error message
	Err      error     // non-nil for NoMatch and Failed outcomes
	Concept  *Concept  // set for concept outcomes
	Instance *Instance // set for instance outcomes
}

// Success reports whether the sentence was accepted and fully applied.
func (o Outcome) Success() bool {
	return o.Err == nil && o.Type != OutcomeNoMatch && o.Type != OutcomeFailed
}

// ErrorMessage returns the human-readable failure text, empty on success.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
