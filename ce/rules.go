package ce

import (
	"strings"
)

// Rules are ordinary instances of the reserved "rule" concept whose
// "instruction" value holds a sentence in a restricted sub-grammar:
//
//	if the <C1> <V1> <label> the <C2> <V2> then the <C2> <V2> <label2> the <C1> <V1>
//	if the <C1> <V1> has the <C2> <V2> as <label> then ...
//
// Labels may be tilde-delimited. On every propagating write the engine
// checks each rule and, on a match, writes exactly one inverse fact onto
// the object with propagation suppressed. That suppression is what bounds
// inference to a single hop and makes cascades impossible.

// ruleConceptName is the reserved concept whose instances are rules.
const ruleConceptName = "rule"

// ruleInstructionLabel is the value slot holding a rule's sentence.
const ruleInstructionLabel = "instruction"

// ruleClause is one side of an if/then template.
type ruleClause struct {
	concept    string   // concept of the clause subject
	kind       FactKind // relationship or value form
	label      string   // fact label
	objConcept string   // concept of the clause object
	subjectVar string
	objectVar  string
}

// ruleTemplate is a parsed rule instruction.
type ruleTemplate struct {
	when ruleClause
	then ruleClause
}

// propagate runs the rule engine against a freshly written fact. It is
// invoked from Instance.appendFact for propagating writes only; writes
// performed here are themselves non-propagating.
func (s *Store) propagate(subject *Instance, f Fact) {
	if f.IsLiteral() {
		return // rules relate instances; a bare literal has no object
	}
	object := s.instanceByID(f.TargetID)
	if object == nil {
		return
	}
	subjectConcept := s.conceptByID(subject.conceptID)
	objectConcept := s.conceptByID(object.conceptID)
	if subjectConcept == nil || objectConcept == nil {
		return
	}

	for _, rule := range s.instancesNamed(ruleConceptName, true) {
		instruction := rule.propertyString(ruleInstructionLabel)
		template := parseRuleInstruction(instruction)
		if template == nil {
			// Malformed instructions are skipped, never surfaced to the
			// sentence submitter
			continue
		}
		if !template.matches(subjectConcept, objectConcept, f) {
			continue
		}
		source := "rule:" + rule.Name()
		if template.then.kind == FactRelationship {
			object.addRelationship(template.then.label, subject, false, source)
		} else {
			object.addTypedValue(template.then.label, subject, false, source)
		}
		s.log.Debugw("rule fired",
			"rule", rule.Name(),
			"subject", subject.Name(),
			"object", object.Name(),
			"label", template.then.label)
	}
}

// matches applies the firing conditions: the subject's concept names the
// if-clause, the kinds and labels line up, the object's concept (or an
// ancestor) names the if-clause object type, and the then-clause writes
// back onto the subject's concept.
func (t *ruleTemplate) matches(subjectConcept, objectConcept *Concept, f Fact) bool {
	if !strings.EqualFold(t.when.concept, subjectConcept.Name()) {
		return false
	}
	if t.when.kind != f.Kind {
		return false
	}
	if foldLabel(t.when.label) != foldLabel(f.Label) {
		return false
	}
	if !conceptOrAncestorNamed(objectConcept, t.when.objConcept) {
		return false
	}
	return strings.EqualFold(t.then.objConcept, subjectConcept.Name())
}

func conceptOrAncestorNamed(c *Concept, name string) bool {
	if strings.EqualFold(c.Name(), name) {
		return true
	}
	for _, a := range c.ancestorsDeduped() {
		if strings.EqualFold(a.Name(), name) {
			return true
		}
	}
	return false
}

// parseRuleInstruction compiles a rule sentence into an if/then template.
// A malformed instruction parses to nil.
func parseRuleInstruction(instruction string) *ruleTemplate {
	tokens := tokenize(strings.TrimSuffix(strings.TrimSpace(instruction), "."))
	if len(tokens) < 8 || !tokens[0].is("if") {
		return nil
	}
	thenIdx := indexOfWord(tokens, "then")
	if thenIdx < 0 || thenIdx+1 >= len(tokens) {
		return nil
	}
	when, ok := parseRuleClause(tokens[1:thenIdx])
	if !ok {
		return nil
	}
	then, ok := parseRuleClause(tokens[thenIdx+1:])
	if !ok {
		return nil
	}
	return &ruleTemplate{when: when, then: then}
}

// parseRuleClause parses: the <concept> <VAR> {<label> the <concept> <VAR> |
// has the <concept> <VAR> as <label>}. Variables are single uppercase
// tokens; labels may be wrapped in tildes.
func parseRuleClause(tokens []token) (ruleClause, bool) {
	var clause ruleClause
	if len(tokens) < 5 || !tokens[0].is("the") {
		return clause, false
	}

	// Subject: concept words up to the first variable token.
	varIdx := -1
	for pos := 1; pos < len(tokens); pos++ {
		if isRuleVar(tokens[pos]) {
			varIdx = pos
			break
		}
	}
	if varIdx <= 1 {
		return clause, false
	}
	clause.concept = joinTokens(tokens[1:varIdx])
	clause.subjectVar = tokens[varIdx].text

	body := stripTildes(tokens[varIdx+1:])
	if len(body) == 0 {
		return clause, false
	}

	// Value form: has the <concept> <VAR> as <label>
	if body[0].is("has") && len(body) >= 5 && body[1].is("the") {
		asIdx := indexOfWord(body, "as")
		if asIdx < 4 || asIdx+1 >= len(body) || !isRuleVar(body[asIdx-1]) {
			return clause, false
		}
		clause.kind = FactValue
		clause.objConcept = joinTokens(body[2 : asIdx-1])
		clause.objectVar = body[asIdx-1].text
		clause.label = joinTokens(body[asIdx+1:])
		return clause, clause.label != ""
	}

	// Relationship form: <label> the <concept> <VAR>
	theIdx := indexOfWord(body, "the")
	if theIdx < 1 || theIdx+2 > len(body)-1 || !isRuleVar(body[len(body)-1]) {
		return clause, false
	}
	clause.kind = FactRelationship
	clause.label = joinTokens(body[:theIdx])
	clause.objConcept = joinTokens(body[theIdx+1 : len(body)-1])
	clause.objectVar = body[len(body)-1].text
	return clause, clause.objConcept != ""
}

// isRuleVar reports whether a token looks like a rule variable: a short
// unquoted all-uppercase token, optionally digit-suffixed (C, D, C1).
func isRuleVar(t token) bool {
	if t.quoted || t.text == "" || len(t.text) > 3 {
		return false
	}
	for pos, r := range t.text {
		if pos == 0 {
			if r < 'A' || r > 'Z' {
				return false
			}
			continue
		}
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
