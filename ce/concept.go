package ce

import (
	"fmt"
	"strings"
)

// ValueSlot declares a value a concept's instances may hold.
// A zero TypeID is the literal sentinel ("value"): the slot holds an
// untyped literal string rather than a reference to another instance.
type ValueSlot struct {
	Label  string `json:"label"`
	TypeID int    `json:"type_id"`
}

// RelationshipSlot declares a named edge a concept's instances may hold
// toward instances of the target concept.
type RelationshipSlot struct {
	Label    string `json:"label"`
	TargetID int    `json:"target_id"`
}

// Concept is a named type in the ontology. Concepts support multiple
// inheritance and carry the slot declarations that authorize facts on
// their instances. Concepts are created only by the grammar parser and
// are mutated additively; they are never deleted short of a store reset.
//
// Exported methods synchronize through the owning store's lock; the
// unexported variants assume the caller already holds it.
type Concept struct {
	store *Store

	id                int
	name              string
	parents           []int
	valueSlots        []ValueSlot
	relationshipSlots []RelationshipSlot
	synonyms          []string
}

// ID returns the concept's unique monotonic identifier.
func (c *Concept) ID() int { return c.id }

// Name returns the concept's name as originally conceptualised.
func (c *Concept) Name() string { return c.name }

// Synonyms returns the alternate names registered for this concept.
func (c *Concept) Synonyms() []string {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return append([]string(nil), c.synonyms...)
}

// ValueSlots returns the value slots declared directly on this concept.
func (c *Concept) ValueSlots() []ValueSlot {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return append([]ValueSlot(nil), c.valueSlots...)
}

// RelationshipSlots returns the relationship slots declared directly on
// this concept.
func (c *Concept) RelationshipSlots() []RelationshipSlot {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return append([]RelationshipSlot(nil), c.relationshipSlots...)
}

// Parents returns the concept's direct parents in declaration order.
func (c *Concept) Parents() []*Concept {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.parentConcepts()
}

func (c *Concept) parentConcepts() []*Concept {
	out := make([]*Concept, 0, len(c.parents))
	for _, id := range c.parents {
		if p := c.store.conceptByID(id); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// AddParent registers another concept as a parent of this one.
// Duplicate parents are ignored. Cycles are not checked and must not be
// introduced by callers.
func (c *Concept) AddParent(parent *Concept) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.addParent(parent)
}

func (c *Concept) addParent(parent *Concept) {
	if parent == nil || parent.id == c.id {
		return
	}
	for _, id := range c.parents {
		if id == parent.id {
			return
		}
	}
	c.parents = append(c.parents, parent.id)
}

// AddValueSlot declares a value slot. A nil typ declares a literal slot.
// The label is de-duplicated case-insensitively.
func (c *Concept) AddValueSlot(label string, typ *Concept, source string) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.addValueSlot(label, typ, source)
}

func (c *Concept) addValueSlot(label string, typ *Concept, source string) {
	folded := foldLabel(label)
	for _, s := range c.valueSlots {
		if foldLabel(s.Label) == folded {
			return
		}
	}
	typeID := 0
	if typ != nil {
		typeID = typ.id
	}
	c.valueSlots = append(c.valueSlots, ValueSlot{Label: label, TypeID: typeID})
}

// AddRelationshipSlot declares a relationship slot toward the target
// concept. The label is de-duplicated case-insensitively.
func (c *Concept) AddRelationshipSlot(label string, target *Concept, source string) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.addRelationshipSlot(label, target, source)
}

func (c *Concept) addRelationshipSlot(label string, target *Concept, source string) {
	if target == nil {
		return
	}
	folded := foldLabel(label)
	for _, s := range c.relationshipSlots {
		if foldLabel(s.Label) == folded {
			return
		}
	}
	c.relationshipSlots = append(c.relationshipSlots, RelationshipSlot{Label: label, TargetID: target.id})
}

// AddSynonym registers an alternate name, skipping case-insensitive
// duplicates of the name itself or an existing synonym.
func (c *Concept) AddSynonym(text string) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.addSynonym(text)
}

func (c *Concept) addSynonym(text string) {
	if text == "" || strings.EqualFold(text, c.name) {
		return
	}
	for _, s := range c.synonyms {
		if strings.EqualFold(s, text) {
			return
		}
	}
	c.synonyms = append(c.synonyms, text)
}

// Ancestors returns every transitive parent, depth-first. Duplicates are
// preserved on diamond inheritance; this matches the engine's historical
// behavior, which downstream slot checks tolerate. Use AncestorsDeduped
// when a unique set is needed.
func (c *Concept) Ancestors() []*Concept {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.ancestors()
}

func (c *Concept) ancestors() []*Concept {
	var out []*Concept
	for _, id := range c.parents {
		p := c.store.conceptByID(id)
		if p == nil {
			continue
		}
		out = append(out, p)
		out = append(out, p.ancestors()...)
	}
	return out
}

// AncestorsDeduped returns the transitive parents with duplicates removed,
// preserving first-visit order.
func (c *Concept) AncestorsDeduped() []*Concept {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.ancestorsDeduped()
}

func (c *Concept) ancestorsDeduped() []*Concept {
	seen := map[int]bool{}
	var out []*Concept
	for _, a := range c.ancestors() {
		if seen[a.id] {
			continue
		}
		seen[a.id] = true
		out = append(out, a)
	}
	return out
}

// HasAncestor reports whether other is this concept or one of its
// transitive parents.
func (c *Concept) HasAncestor(other *Concept) bool {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.hasAncestor(other)
}

func (c *Concept) hasAncestor(other *Concept) bool {
	if other == nil {
		return false
	}
	if other.id == c.id {
		return true
	}
	for _, a := range c.ancestorsDeduped() {
		if a.id == other.id {
			return true
		}
	}
	return false
}

// Descendants returns every concept that inherits from this one,
// directly or transitively.
func (c *Concept) Descendants() []*Concept {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	var out []*Concept
	for _, other := range c.store.conceptsAll() {
		if other.id == c.id {
			continue
		}
		if other.hasAncestor(c) {
			out = append(out, other)
		}
	}
	return out
}

// Instances returns the instances whose exact concept is this one.
func (c *Concept) Instances() []*Instance {
	return c.store.Instances(c.name, false)
}

// AllInstances returns instances of this concept and of every descendant
// concept.
func (c *Concept) AllInstances() []*Instance {
	return c.store.Instances(c.name, true)
}

// allowsLabel reports whether a fact label is declared as a value or
// relationship slot on this concept or any ancestor. This is the single
// authorization rule of the engine: writes with undeclared labels are
// silently dropped.
func (c *Concept) allowsLabel(label string) bool {
	folded := foldLabel(label)
	concepts := append([]*Concept{c}, c.ancestorsDeduped()...)
	for _, cc := range concepts {
		for _, s := range cc.valueSlots {
			if foldLabel(s.Label) == folded {
				return true
			}
		}
		for _, s := range cc.relationshipSlots {
			if foldLabel(s.Label) == folded {
				return true
			}
		}
	}
	return false
}

// CE renders the concept back into canonical Controlled English: one
// "conceptualise a" sentence for parents, value slots, and synonyms, plus
// a second "conceptualise the" sentence when relationship slots exist.
func (c *Concept) CE() string {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.ce()
}

func (c *Concept) ce() string {
	vars := newVarSequence(c.name)
	subject := vars.subject()

	primary := fmt.Sprintf("conceptualise %s ~ %s ~ %s", article(c.name), c.name, subject)
	var facts []string
	for _, id := range c.parents {
		if p := c.store.conceptByID(id); p != nil {
			facts = append(facts, fmt.Sprintf("is %s %s", article(p.name), p.name))
		}
	}
	for _, s := range c.valueSlots {
		typeName := literalTypeName
		if s.TypeID != 0 {
			if t := c.store.conceptByID(s.TypeID); t != nil {
				typeName = t.name
			}
		}
		facts = append(facts, fmt.Sprintf("has the %s %s as ~ %s ~", typeName, vars.next(), s.Label))
	}
	for _, syn := range c.synonyms {
		facts = append(facts, fmt.Sprintf("~ is expressed by ~ '%s'", escapeLiteral(syn)))
	}
	if len(facts) > 0 {
		primary += " that " + strings.Join(facts, " and ")
	}

	if len(c.relationshipSlots) == 0 {
		return primary
	}

	var relFacts []string
	for _, s := range c.relationshipSlots {
		target := c.store.conceptByID(s.TargetID)
		if target == nil {
			continue
		}
		relFacts = append(relFacts, fmt.Sprintf("~ %s ~ the %s %s", s.Label, target.name, vars.next()))
	}
	secondary := fmt.Sprintf("conceptualise the %s %s %s", c.name, subject, strings.Join(relFacts, " and "))
	return primary + "\n" + secondary
}

// Gist renders a terse human-readable summary of the concept.
func (c *Concept) Gist() string {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.gist()
}

func (c *Concept) gist() string {
	var parts []string
	if len(c.parents) > 0 {
		var names []string
		for _, p := range c.parentConcepts() {
			names = append(names, p.name)
		}
		parts = append(parts, fmt.Sprintf("%s %s is a type of %s.",
			capitalize(article(c.name)), c.name, strings.Join(names, " and ")))
	} else {
		parts = append(parts, fmt.Sprintf("%s %s is a concept.", capitalize(article(c.name)), c.name))
	}
	var slots []string
	for _, s := range c.valueSlots {
		typeName := literalTypeName
		if s.TypeID != 0 {
			if t := c.store.conceptByID(s.TypeID); t != nil {
				typeName = t.name
			}
		}
		slots = append(slots, fmt.Sprintf("the %s '%s'", typeName, s.Label))
	}
	if len(slots) > 0 {
		parts = append(parts, fmt.Sprintf("An instance of %s has %s.", c.name, strings.Join(slots, " and ")))
	}
	var rels []string
	for _, s := range c.relationshipSlots {
		if t := c.store.conceptByID(s.TargetID); t != nil {
			rels = append(rels, fmt.Sprintf("%s the %s", s.Label, t.name))
		}
	}
	if len(rels) > 0 {
		parts = append(parts, fmt.Sprintf("An instance of %s can %s.", c.name, strings.Join(rels, " and ")))
	}
	return strings.Join(parts, " ")
}

// varSequence hands out the single-letter variables used when rendering
// canonical CE. The subject takes the concept's initial; slot variables
// take the remaining letters in order.
type varSequence struct {
	used map[string]bool
	pos  int
	subj string
}

func newVarSequence(name string) *varSequence {
	subj := "X"
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			subj = string(r)
			break
		}
	}
	return &varSequence{used: map[string]bool{subj: true}, subj: subj}
}

func (v *varSequence) subject() string { return v.subj }

func (v *varSequence) next() string {
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for v.pos < len(letters) {
		candidate := string(letters[v.pos])
		v.pos++
		if !v.used[candidate] {
			v.used[candidate] = true
			return candidate
		}
	}
	// Letters exhausted: fall back to numbered variables
	v.pos++
	return fmt.Sprintf("V%d", v.pos)
}

// capitalize upper-cases the first letter of a word.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// article returns "a" or "an" for the given noun.
func article(noun string) string {
	if noun == "" {
		return "a"
	}
	switch noun[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return "an"
	}
	return "a"
}
