// Package ce implements the Controlled English knowledge engine core:
// a grammar parser that compiles CE sentences into a typed, multiply-inherited
// ontology graph of concepts and instances, and a single-hop forward-chaining
// rule engine that propagates facts across that graph.
//
// The engine is driven entirely through Store.Submit, which classifies a
// sentence into one of four productions (new concept, concept edit, new
// instance, instance edit), applies its facts to the graph, and returns a
// structured Outcome. Anything that matches no production is reported as a
// no-match so hosts can fall back to question answering or natural-language
// guessing (see the interpreter package).
//
// The core is synchronous: a submission runs to completion (parse, mutate,
// rule-fire) before returning. The Store serializes mutating entry points;
// read traversals are pure and safe to run concurrently with each other.
package ce
