package ce

import (
	"fmt"
	"strings"
)

// FactKind distinguishes value facts from relationship facts.
type FactKind int

const (
	// FactValue is a "has ... as <label>" fact
	FactValue FactKind = iota
	// FactRelationship is a "<label> the <concept> '<name>'" fact
	FactRelationship
)

// Fact is one value or relationship held by an instance, tagged with the
// source that wrote it. A value fact carries either a literal string or a
// reference to another instance; a relationship fact always references an
// instance.
type Fact struct {
	Kind     FactKind `json:"kind"`
	Label    string   `json:"label"`
	Source   string   `json:"source,omitempty"`
	Literal  string   `json:"literal,omitempty"`
	TargetID int      `json:"target_id,omitempty"`
}

// IsLiteral reports whether the fact's payload is a literal string rather
// than an instance reference.
func (f Fact) IsLiteral() bool { return f.TargetID == 0 }

// SentenceRecord is one raw input sentence that touched an instance,
// kept as the instance's provenance trail.
type SentenceRecord struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// Instance is a named member of exactly one concept. Inheritance is used
// only for slot authorization and inference, never for subtyping the
// instance itself.
//
// Exported methods synchronize through the owning store's lock; the
// unexported variants assume the caller already holds it.
type Instance struct {
	store *Store

	id            int
	name          string
	conceptID     int
	values        []Fact
	relationships []Fact
	synonyms      []string
	sentences     []SentenceRecord
}

// ID returns the instance's unique monotonic identifier. Instance IDs are
// numbered independently from concept IDs.
func (i *Instance) ID() int { return i.id }

// Name returns the instance's name.
func (i *Instance) Name() string { return i.name }

// Concept returns the exact concept this instance belongs to.
func (i *Instance) Concept() *Concept {
	return i.store.ConceptByID(i.conceptID)
}

// Synonyms returns the alternate names registered for this instance.
func (i *Instance) Synonyms() []string {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	return append([]string(nil), i.synonyms...)
}

// Values returns the instance's value facts in insertion order.
func (i *Instance) Values() []Fact {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	return append([]Fact(nil), i.values...)
}

// Relationships returns the instance's relationship facts in insertion order.
func (i *Instance) Relationships() []Fact {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	return append([]Fact(nil), i.relationships...)
}

// Sentences returns the provenance trail: every raw sentence that touched
// this instance, oldest first.
func (i *Instance) Sentences() []SentenceRecord {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	return append([]SentenceRecord(nil), i.sentences...)
}

// AddSentence appends a raw sentence to the provenance trail.
func (i *Instance) AddSentence(text, source string) {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	i.addSentence(text, source)
}

func (i *Instance) addSentence(text, source string) {
	i.sentences = append(i.sentences, SentenceRecord{Text: text, Source: source})
}

// AddSynonym registers an alternate name, skipping case-insensitive
// duplicates.
func (i *Instance) AddSynonym(text string) {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	i.addSynonym(text)
}

func (i *Instance) addSynonym(text string) {
	if text == "" || strings.EqualFold(text, i.name) {
		return
	}
	for _, s := range i.synonyms {
		if strings.EqualFold(s, text) {
			return
		}
	}
	i.synonyms = append(i.synonyms, text)
}

// AddValue appends a literal value fact. The write is silently dropped
// (returning false) unless the label is declared as a slot on the
// instance's concept or an ancestor. When propagate is true the rule
// engine runs against the new fact.
func (i *Instance) AddValue(label, literal string, propagate bool, source string) bool {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	return i.addValue(label, literal, propagate, source)
}

func (i *Instance) addValue(label, literal string, propagate bool, source string) bool {
	return i.appendFact(Fact{Kind: FactValue, Label: label, Literal: literal, Source: source}, propagate)
}

// AddTypedValue appends a value fact whose payload is another instance.
func (i *Instance) AddTypedValue(label string, target *Instance, propagate bool, source string) bool {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	return i.addTypedValue(label, target, propagate, source)
}

func (i *Instance) addTypedValue(label string, target *Instance, propagate bool, source string) bool {
	if target == nil {
		return false
	}
	return i.appendFact(Fact{Kind: FactValue, Label: label, TargetID: target.id, Source: source}, propagate)
}

// AddRelationship appends a relationship fact toward the target instance,
// under the same authorization and propagation contract as AddValue.
func (i *Instance) AddRelationship(label string, target *Instance, propagate bool, source string) bool {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()
	return i.addRelationship(label, target, propagate, source)
}

func (i *Instance) addRelationship(label string, target *Instance, propagate bool, source string) bool {
	if target == nil {
		return false
	}
	return i.appendFact(Fact{Kind: FactRelationship, Label: label, TargetID: target.id, Source: source}, propagate)
}

func (i *Instance) appendFact(f Fact, propagate bool) bool {
	concept := i.store.conceptByID(i.conceptID)
	if concept == nil || !concept.allowsLabel(f.Label) {
		// Permissive ignore: schema-unknown facts are dropped, not errored
		i.store.log.Debugw("dropping unauthorized fact",
			"instance", i.name,
			"label", f.Label,
			"source", f.Source)
		return false
	}
	if f.Kind == FactRelationship {
		i.relationships = append(i.relationships, f)
	} else {
		i.values = append(i.values, f)
	}
	if propagate {
		i.store.propagate(i, f)
	}
	return true
}

// Property returns the most recently added fact matching the label, or nil.
// Values are searched before relationships, each most-recent-first.
func (i *Instance) Property(label string) *Fact {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	return i.property(label)
}

func (i *Instance) property(label string) *Fact {
	folded := foldLabel(label)
	for n := len(i.values) - 1; n >= 0; n-- {
		if foldLabel(i.values[n].Label) == folded {
			f := i.values[n]
			return &f
		}
	}
	for n := len(i.relationships) - 1; n >= 0; n-- {
		if foldLabel(i.relationships[n].Label) == folded {
			f := i.relationships[n]
			return &f
		}
	}
	return nil
}

// Properties returns every fact matching the label, reverse-chronological:
// values most-recent-first, then relationships most-recent-first.
func (i *Instance) Properties(label string) []Fact {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	folded := foldLabel(label)
	var out []Fact
	for n := len(i.values) - 1; n >= 0; n-- {
		if foldLabel(i.values[n].Label) == folded {
			out = append(out, i.values[n])
		}
	}
	for n := len(i.relationships) - 1; n >= 0; n-- {
		if foldLabel(i.relationships[n].Label) == folded {
			out = append(out, i.relationships[n])
		}
	}
	return out
}

// PropertyString renders the most recent matching fact as a plain string:
// the literal itself, or the referenced instance's name.
func (i *Instance) PropertyString(label string) string {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	return i.propertyString(label)
}

func (i *Instance) propertyString(label string) string {
	f := i.property(label)
	if f == nil {
		return ""
	}
	return i.renderPayload(*f)
}

// PropertyInstance resolves the most recent matching fact to an instance,
// or nil when absent or literal.
func (i *Instance) PropertyInstance(label string) *Instance {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	f := i.property(label)
	if f == nil || f.IsLiteral() {
		return nil
	}
	return i.store.instanceByID(f.TargetID)
}

func (i *Instance) renderPayload(f Fact) string {
	if f.IsLiteral() {
		return f.Literal
	}
	if target := i.store.instanceByID(f.TargetID); target != nil {
		return target.name
	}
	return ""
}

// CE renders the instance back into a canonical "there is a" sentence
// reconstructing its current state. Generation and parsing are inverses
// up to fact ordering.
func (i *Instance) CE() string {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	return i.ce()
}

func (i *Instance) ce() string {
	concept := i.store.conceptByID(i.conceptID)
	conceptName := "entity"
	if concept != nil {
		conceptName = concept.name
	}
	sentence := fmt.Sprintf("there is %s %s named '%s'", article(conceptName), conceptName, escapeLiteral(i.name))
	facts := i.renderFacts()
	for _, syn := range i.synonyms {
		facts = append(facts, fmt.Sprintf("is expressed by '%s'", escapeLiteral(syn)))
	}
	if len(facts) > 0 {
		sentence += " that " + strings.Join(facts, " and ")
	}
	return sentence
}

// Gist renders a terse, deduplicated human summary; repeated identical
// facts fold into a "(N times)" annotation.
func (i *Instance) Gist() string {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	concept := i.store.conceptByID(i.conceptID)
	conceptName := "entity"
	if concept != nil {
		conceptName = concept.name
	}
	summary := fmt.Sprintf("%s is %s %s.", i.name, article(conceptName), conceptName)

	facts := i.renderFacts()
	if len(facts) == 0 {
		return summary
	}
	counts := map[string]int{}
	var order []string
	for _, f := range facts {
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}
	var folded []string
	for _, f := range order {
		if counts[f] > 1 {
			folded = append(folded, fmt.Sprintf("%s (%d times)", f, counts[f]))
		} else {
			folded = append(folded, f)
		}
	}
	return fmt.Sprintf("%s %s %s.", summary, i.name, strings.Join(folded, " and "))
}

// renderFacts renders the instance's facts as CE fact phrases in
// insertion order, values first.
func (i *Instance) renderFacts() []string {
	var out []string
	for _, f := range i.values {
		if f.IsLiteral() {
			out = append(out, fmt.Sprintf("has '%s' as %s", escapeLiteral(f.Literal), f.Label))
			continue
		}
		target := i.store.instanceByID(f.TargetID)
		if target == nil {
			continue
		}
		targetConcept := "entity"
		if tc := i.store.conceptByID(target.conceptID); tc != nil {
			targetConcept = tc.name
		}
		out = append(out, fmt.Sprintf("has the %s '%s' as %s", targetConcept, escapeLiteral(target.name), f.Label))
	}
	for _, f := range i.relationships {
		target := i.store.instanceByID(f.TargetID)
		if target == nil {
			continue
		}
		targetConcept := "entity"
		if tc := i.store.conceptByID(target.conceptID); tc != nil {
			targetConcept = tc.name
		}
		out = append(out, fmt.Sprintf("%s the %s '%s'", f.Label, targetConcept, escapeLiteral(target.name)))
	}
	return out
}

// matchesName reports whether the given folded name matches the
// instance's name or one of its synonyms.
func (i *Instance) matchesName(folded string) bool {
	if foldLabel(i.name) == folded {
		return true
	}
	for _, s := range i.synonyms {
		if foldLabel(s) == folded {
			return true
		}
	}
	return false
}
