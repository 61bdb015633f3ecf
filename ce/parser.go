package ce

import (
	"strings"

	"github.com/nerica/cen/errors"
)

// maxConceptWords bounds the greedy longest-prefix match used to resolve
// multiword concept names like "road vehicle".
const maxConceptWords = 4

// parse dispatches a sentence into one of the four CE productions, tried
// in priority order with first match winning. It runs under the store's
// write lock.
func (s *Store) parse(raw, source string) Outcome {
	sentence := strings.TrimSuffix(strings.TrimSpace(raw), ".")
	tokens := tokenize(sentence)
	if len(tokens) < 2 {
		return s.noMatch(raw)
	}

	switch {
	case tokens[0].is("conceptualise") || tokens[0].is("conceptualize"):
		if tokens[1].is("a") || tokens[1].is("an") {
			return s.parseNewConcept(tokens, raw, source)
		}
		if tokens[1].is("the") {
			return s.parseEditConcept(tokens, raw, source)
		}
		return s.noMatch(raw)
	case tokens[0].is("there") && tokens[1].is("is"):
		return s.parseNewInstance(tokens, raw, source)
	case tokens[0].is("the"):
		return s.parseEditInstance(tokens, raw, source)
	}
	return s.noMatch(raw)
}

func (s *Store) noMatch(raw string) Outcome {
	return Outcome{Type: OutcomeNoMatch, Sentence: raw, Err: errors.ErrNoMatch}
}

func (s *Store) failed(raw string, err error) Outcome {
	return Outcome{Type: OutcomeFailed, Sentence: raw, Text: err.Error(), Err: err}
}

// parseNewConcept handles: conceptualise a ~ <name> ~ <var> [that <facts>]
func (s *Store) parseNewConcept(tokens []token, raw, source string) Outcome {
	if len(tokens) < 5 || tokens[2].text != "~" {
		return s.noMatch(raw)
	}
	closing := -1
	for pos := 3; pos < len(tokens); pos++ {
		if !tokens[pos].quoted && tokens[pos].text == "~" {
			closing = pos
			break
		}
	}
	if closing < 0 || closing == 3 {
		return s.noMatch(raw)
	}
	name := joinTokens(tokens[3:closing])
	if s.conceptByName(name) != nil {
		return s.failed(raw, errors.Wrapf(errors.ErrDuplicateConcept, "'%s'", name))
	}

	// Skip the subject variable after the closing tilde, then an
	// optional "that" before the fact list.
	rest := tokens[closing+1:]
	if len(rest) > 0 {
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0].is("that") {
		rest = rest[1:]
	}

	concept := s.createConcept(name)
	errs := s.applyConceptFacts(concept, splitFacts(rest), source)
	outcome := Outcome{Type: OutcomeNewConcept, Sentence: raw, Text: concept.ce(), Concept: concept}
	if len(errs) > 0 {
		outcome.Type = OutcomeFailed
		outcome.Err = joinErrors(errs)
		outcome.Text = outcome.Err.Error()
	}
	return outcome
}

// parseEditConcept handles: conceptualise the <name> <var> [that] <facts>
func (s *Store) parseEditConcept(tokens []token, raw, source string) Outcome {
	concept, next := s.greedyConcept(tokens, 2)
	if concept == nil {
		if len(tokens) > 2 {
			return s.failed(raw, errors.NewUnknownConceptError(tokens[2].text))
		}
		return s.noMatch(raw)
	}

	// Skip the subject variable, then an optional "that".
	rest := tokens[next:]
	if len(rest) > 0 && !rest[0].quoted && rest[0].text != "~" {
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0].is("that") {
		rest = rest[1:]
	}

	errs := s.applyConceptFacts(concept, splitFacts(rest), source)
	outcome := Outcome{Type: OutcomeEditConcept, Sentence: raw, Text: concept.ce(), Concept: concept}
	if len(errs) > 0 {
		outcome.Type = OutcomeFailed
		outcome.Err = joinErrors(errs)
		outcome.Text = outcome.Err.Error()
	}
	return outcome
}

// parseNewInstance handles: there is a/an <concept> named '<name>' [that <facts>]
// Re-creating an existing (concept, name) pair is an idempotent success.
func (s *Store) parseNewInstance(tokens []token, raw, source string) Outcome {
	if len(tokens) < 5 || !(tokens[2].is("a") || tokens[2].is("an")) {
		return s.noMatch(raw)
	}
	namedIdx := indexOfWord(tokens, "named")
	if namedIdx < 4 || namedIdx+1 >= len(tokens) {
		return s.noMatch(raw)
	}
	conceptName := joinTokens(tokens[3:namedIdx])
	concept := s.conceptByName(conceptName)
	if concept == nil {
		return s.failed(raw, errors.NewUnknownConceptError(conceptName))
	}
	name := tokens[namedIdx+1].text

	instance := s.findInstanceExact(concept, name)
	if instance == nil {
		instance = s.createInstance(name, concept)
	}
	instance.addSentence(raw, source)

	rest := tokens[namedIdx+2:]
	if len(rest) > 0 && rest[0].is("that") {
		rest = rest[1:]
	}
	errs := s.applyInstanceFacts(instance, splitFacts(rest), raw, source)
	outcome := Outcome{Type: OutcomeNewInstance, Sentence: raw, Text: instance.ce(), Instance: instance}
	if len(errs) > 0 {
		outcome.Type = OutcomeFailed
		outcome.Err = joinErrors(errs)
		outcome.Text = outcome.Err.Error()
	}
	return outcome
}

// parseEditInstance handles: the <concept> '<name>' <facts>
// The subject itself is auto-vivified when unknown. An unresolvable
// concept name yields a no-match, leaving the sentence for the caller's
// question or guessing interpreters.
func (s *Store) parseEditInstance(tokens []token, raw, source string) Outcome {
	concept, next := s.greedyConcept(tokens, 1)
	if concept == nil || next >= len(tokens) {
		return s.noMatch(raw)
	}
	instance := s.vivify(concept, tokens[next].text, raw, source)

	errs := s.applyInstanceFacts(instance, splitFacts(tokens[next+1:]), raw, source)
	outcome := Outcome{Type: OutcomeEditInstance, Sentence: raw, Text: instance.ce(), Instance: instance}
	if len(errs) > 0 {
		outcome.Type = OutcomeFailed
		outcome.Err = joinErrors(errs)
		outcome.Text = outcome.Err.Error()
	}
	return outcome
}

// greedyConcept resolves a possibly multiword concept name starting at
// the given token index, preferring the longest match. Returns the
// concept and the index of the first token after its name.
func (s *Store) greedyConcept(tokens []token, start int) (*Concept, int) {
	limit := start + maxConceptWords
	if limit > len(tokens) {
		limit = len(tokens)
	}
	for end := limit; end > start; end-- {
		if tokens[end-1].quoted {
			continue
		}
		if c := s.conceptByName(joinTokens(tokens[start:end])); c != nil {
			return c, end
		}
	}
	return nil, start
}

// applyConceptFacts applies concept-production facts one at a time.
// Facts are independent: a failing fact is recorded and does not undo
// earlier facts in the same sentence.
func (s *Store) applyConceptFacts(concept *Concept, facts [][]token, source string) []error {
	var errs []error
	for _, fact := range facts {
		if err := s.applyConceptFact(concept, fact, source); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (s *Store) applyConceptFact(concept *Concept, fact []token, source string) error {
	if len(fact) == 0 {
		return nil
	}

	// Synonym, tilde form: ~ is expressed by ~ '<text>'
	if fact[0].text == "~" && !fact[0].quoted {
		closing := -1
		for pos := 1; pos < len(fact); pos++ {
			if !fact[pos].quoted && fact[pos].text == "~" {
				closing = pos
				break
			}
		}
		if closing > 0 && foldLabel(joinTokens(fact[1:closing])) == "is expressed by" {
			if closing+1 < len(fact) && fact[closing+1].quoted {
				concept.addSynonym(fact[closing+1].text)
				return nil
			}
			return errors.Newf("unable to parse synonym in fact '%s'", joinTokens(fact))
		}
		// Relationship slot: ~ <label> ~ the <target> <var>
		if closing > 1 && closing+2 < len(fact) && fact[closing+1].is("the") {
			label := joinTokens(fact[1:closing])
			targetName := joinTokens(fact[closing+2 : len(fact)-1])
			target := s.conceptByName(targetName)
			if target == nil {
				return errors.NewUnknownConceptError(targetName)
			}
			concept.addRelationshipSlot(label, target, source)
			return nil
		}
		return errors.Newf("unable to parse fact '%s'", joinTokens(fact))
	}

	// Synonym, bare form: is expressed by '<text>'
	if len(fact) == 4 && fact[0].is("is") && fact[1].is("expressed") && fact[2].is("by") && fact[3].quoted {
		concept.addSynonym(fact[3].text)
		return nil
	}

	// Parent assertion: is a/an <concept>
	if len(fact) >= 3 && fact[0].is("is") && (fact[1].is("a") || fact[1].is("an")) {
		parentName := joinTokens(fact[2:])
		parent := s.conceptByName(parentName)
		if parent == nil {
			return errors.NewUnknownConceptError(parentName)
		}
		concept.addParent(parent)
		return nil
	}

	// Value slot: has the <type> <var> as ~ <label> ~
	if len(fact) >= 6 && fact[0].is("has") && fact[1].is("the") {
		asIdx := indexOfWord(fact, "as")
		if asIdx >= 4 && asIdx+1 < len(fact) {
			typeName := joinTokens(fact[2 : asIdx-1])
			label := joinTokens(stripTildes(fact[asIdx+1:]))
			if label == "" {
				return errors.Newf("unable to parse slot label in fact '%s'", joinTokens(fact))
			}
			if foldLabel(typeName) == literalTypeName {
				concept.addValueSlot(label, nil, source)
				return nil
			}
			typ := s.conceptByName(typeName)
			if typ == nil {
				return errors.NewUnknownConceptError(typeName)
			}
			concept.addValueSlot(label, typ, source)
			return nil
		}
	}

	return errors.Newf("unable to parse fact '%s'", joinTokens(fact))
}

// applyInstanceFacts applies instance-production facts one at a time,
// non-transactionally, mirroring applyConceptFacts.
func (s *Store) applyInstanceFacts(instance *Instance, facts [][]token, raw, source string) []error {
	var errs []error
	for _, fact := range facts {
		if err := s.applyInstanceFact(instance, fact, raw, source); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (s *Store) applyInstanceFact(instance *Instance, fact []token, raw, source string) error {
	if len(fact) == 0 {
		return nil
	}

	// Synonym: is expressed by '<text>'
	if len(fact) == 4 && fact[0].is("is") && fact[1].is("expressed") && fact[2].is("by") && fact[3].quoted {
		instance.addSynonym(fact[3].text)
		return nil
	}

	// Literal value: has '<literal>' as <label>
	if len(fact) >= 4 && fact[0].is("has") && fact[1].quoted && fact[2].is("as") {
		label := joinTokens(stripTildes(fact[3:]))
		instance.addValue(label, fact[1].text, true, source)
		return nil
	}

	// Typed value: has the <type> '<name>' as <label>
	if len(fact) >= 6 && fact[0].is("has") && fact[1].is("the") {
		asIdx := indexOfWord(fact, "as")
		if asIdx >= 4 && asIdx+1 < len(fact) {
			typeName := joinTokens(fact[2 : asIdx-1])
			typ := s.conceptByName(typeName)
			if typ == nil {
				return errors.NewUnknownConceptError(typeName)
			}
			label := joinTokens(stripTildes(fact[asIdx+1:]))
			target := s.vivify(typ, fact[asIdx-1].text, raw, source)
			instance.addTypedValue(label, target, true, source)
			return nil
		}
	}

	// Relationship: <label> the <type> '<name>'
	if theIdx := indexOfWord(fact, "the"); theIdx >= 1 && theIdx+2 <= len(fact)-1 {
		label := joinTokens(stripTildes(fact[:theIdx]))
		typeName := joinTokens(fact[theIdx+1 : len(fact)-1])
		typ := s.conceptByName(typeName)
		if typ == nil {
			return errors.NewUnknownConceptError(typeName)
		}
		target := s.vivify(typ, fact[len(fact)-1].text, raw, source)
		instance.addRelationship(label, target, true, source)
		return nil
	}

	return errors.Newf("unable to parse fact '%s'", joinTokens(fact))
}

// vivify resolves a concept-and-name instance reference, creating the
// instance when it does not exist yet. A reference to concept C matches
// an existing instance of C or of any descendant of C; the created
// fallback takes exactly C. The containing sentence is appended to the
// instance's provenance trail either way.
func (s *Store) vivify(concept *Concept, name, raw, source string) *Instance {
	folded := foldLabel(name)
	for _, id := range s.instanceOrder {
		instance := s.instances[id]
		if instance == nil || !instance.matchesName(folded) {
			continue
		}
		ic := s.conceptByID(instance.conceptID)
		if ic != nil && ic.hasAncestor(concept) {
			instance.addSentence(raw, source)
			return instance
		}
	}
	instance := s.createInstance(name, concept)
	instance.addSentence(raw, source)
	s.log.Debugw("auto-vivified instance",
		"name", name,
		"concept", concept.Name(),
		"source", source)
	return instance
}

// stripTildes drops tilde tokens from a fact fragment.
func stripTildes(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for _, t := range tokens {
		if !t.quoted && t.text == "~" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// joinErrors folds per-fact errors into one error value, preserving each
// message.
func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for n, err := range errs {
		msgs[n] = err.Error()
	}
	return errors.New(strings.Join(msgs, "; "))
}
