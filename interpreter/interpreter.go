// Package interpreter provides the read-only interpretation layers hosts
// try after a CE parse reports no match: a small question grammar
// answered from the graph, and a best-effort natural-language guesser
// that turns free text into a valid CE sentence.
package interpreter

import (
	"fmt"
	"strings"

	"github.com/nerica/cen/ce"
	"github.com/nerica/cen/errors"
)

// Ask answers a question against the graph without mutating it.
// Supported forms:
//
//	what is <name>
//	what is a/an <name>
//	who/what does <name> <label>
//	who/what <label> <name>   (reverse lookup)
//	list instances of [type] <name>
//
// Unsupported questions return ErrNoMatch so hosts can fall through to
// Guess.
func Ask(store *ce.Store, question string) (string, error) {
	q := strings.TrimSpace(question)
	q = strings.TrimSuffix(q, "?")
	q = strings.TrimSuffix(q, ".")
	words := strings.Fields(q)
	if len(words) < 2 {
		return "", errors.ErrNoMatch
	}
	lower := make([]string, len(words))
	for n, w := range words {
		lower[n] = strings.ToLower(strings.Trim(w, "'"))
	}

	switch {
	case lower[0] == "what" && lower[1] == "is":
		rest := lower[2:]
		if len(rest) > 0 && (rest[0] == "a" || rest[0] == "an" || rest[0] == "the") {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return "", errors.ErrNoMatch
		}
		return describe(store, strings.Join(rest, " "))

	case (lower[0] == "who" || lower[0] == "what") && lower[1] == "does" && len(lower) >= 4:
		name := lower[2]
		label := strings.Join(lower[3:], " ")
		instance := store.InstanceByName(name, nil)
		if instance == nil {
			return "", errors.NewNotFoundError("I don't know anything called '%s'", name)
		}
		answers := instance.Properties(label)
		if len(answers) == 0 {
			return "", errors.NewNotFoundError("I don't know what %s %s", instance.Name(), label)
		}
		var rendered []string
		for _, f := range answers {
			if f.IsLiteral() {
				rendered = append(rendered, "'"+f.Literal+"'")
			} else if target := store.InstanceByID(f.TargetID); target != nil {
				rendered = append(rendered, target.Name())
			}
		}
		return fmt.Sprintf("%s %s %s.", instance.Name(), label, strings.Join(rendered, " and ")), nil

	case (lower[0] == "who" || lower[0] == "what") && len(lower) >= 3:
		// Reverse lookup: who <label> <name>
		name := lower[len(lower)-1]
		label := strings.Join(lower[1:len(lower)-1], " ")
		object := store.InstanceByName(name, nil)
		if object == nil {
			return "", errors.NewNotFoundError("I don't know anything called '%s'", name)
		}
		var subjects []string
		for _, instance := range store.Instances("", false) {
			for _, f := range instance.Properties(label) {
				if !f.IsLiteral() && f.TargetID == object.ID() {
					subjects = append(subjects, instance.Name())
				}
			}
		}
		if len(subjects) == 0 {
			return "", errors.NewNotFoundError("I don't know what %s '%s'", label, object.Name())
		}
		return fmt.Sprintf("%s %s %s.", strings.Join(subjects, " and "), label, object.Name()), nil

	case lower[0] == "list" && lower[1] == "instances" && len(lower) >= 4 && lower[2] == "of":
		rest := lower[3:]
		if len(rest) > 0 && rest[0] == "type" {
			rest = rest[1:]
		}
		conceptName := strings.Join(rest, " ")
		instances := store.Instances(conceptName, true)
		if instances == nil {
			return "", errors.NewNotFoundError("I don't know the type '%s'", conceptName)
		}
		if len(instances) == 0 {
			return fmt.Sprintf("There are no instances of %s.", conceptName), nil
		}
		var names []string
		for _, instance := range instances {
			names = append(names, instance.Name())
		}
		return strings.Join(names, ", ") + ".", nil
	}

	return "", errors.ErrNoMatch
}

// describe renders the gist of whatever the name resolves to, preferring
// instances over concepts.
func describe(store *ce.Store, name string) (string, error) {
	if instance := store.InstanceByName(name, nil); instance != nil {
		return instance.Gist(), nil
	}
	if concept := store.ConceptByName(name); concept != nil {
		return concept.Gist(), nil
	}
	return "", errors.NewNotFoundError("I don't know anything called '%s'", name)
}

// GuessResult reports what the guesser understood and submitted.
type GuessResult struct {
	Understood bool
	Sentence   string     // the CE sentence synthesized from the text
	Outcome    ce.Outcome // result of submitting it
}

// Guess scans free text for known instance names and relationship
// labels, synthesizes the CE sentence it believes was meant, and submits
// it. It is deliberately conservative: with no confident interpretation
// it reports Understood=false and leaves the graph untouched.
func Guess(store *ce.Store, text, source string) GuessResult {
	words := strings.Fields(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(text), ".")))
	if len(words) < 2 {
		return GuessResult{}
	}

	subject, subjectEnd := findInstance(store, words, 0)
	if subject == nil {
		return GuessResult{}
	}

	// Look for a declared relationship label of the subject's concept (or
	// an ancestor) somewhere after the subject, then an object instance
	// after the label.
	concept := subject.Concept()
	if concept == nil {
		return GuessResult{}
	}
	labels := relationshipLabels(concept)
	for start := subjectEnd; start < len(words); start++ {
		for _, label := range labels {
			labelWords := strings.Fields(label)
			if !wordsMatch(words, start, labelWords) {
				continue
			}
			object, _ := findInstance(store, words, start+len(labelWords))
			if object == nil || object.Concept() == nil {
				continue
			}
			sentence := fmt.Sprintf("the %s '%s' %s the %s '%s'",
				concept.Name(), subject.Name(), label,
				object.Concept().Name(), object.Name())
			return GuessResult{
				Understood: true,
				Sentence:   sentence,
				Outcome:    store.Submit(sentence, source),
			}
		}
	}
	return GuessResult{}
}

// findInstance scans for a known instance name starting at or after the
// given word offset, returning the instance and the offset just past it.
func findInstance(store *ce.Store, words []string, from int) (*ce.Instance, int) {
	for start := from; start < len(words); start++ {
		// Try two-word names first, then single words
		if start+1 < len(words) {
			if instance := store.InstanceByName(words[start]+" "+words[start+1], nil); instance != nil {
				return instance, start + 2
			}
		}
		if instance := store.InstanceByName(strings.Trim(words[start], "'"), nil); instance != nil {
			return instance, start + 1
		}
	}
	return nil, from
}

// relationshipLabels collects relationship slot labels from a concept
// and its ancestors.
func relationshipLabels(concept *ce.Concept) []string {
	var labels []string
	concepts := append([]*ce.Concept{concept}, concept.AncestorsDeduped()...)
	for _, c := range concepts {
		for _, slot := range c.RelationshipSlots() {
			labels = append(labels, slot.Label)
		}
	}
	return labels
}

func wordsMatch(words []string, at int, expected []string) bool {
	if at+len(expected) > len(words) {
		return false
	}
	for n, w := range expected {
		if !strings.EqualFold(words[at+n], strings.ToLower(w)) {
			return false
		}
	}
	return true
}
