// Package engine implements the Post system rewrite engine.
//
// The engine owns a working string and an ordered rule set. Each step
// scans the rules from the first one, applies the first rule whose
// pattern occurs anywhere in the working string, and replaces exactly the
// matched span. A run repeats steps until no rule applies.
//
// ARCHITECTURE:
//
// Step Protocol:
//  1. Search rules in declaration order, always starting at rule 0
//  2. For each rule, search the working string left to right
//  3. First rule with a match: splice the instantiated replacement into
//     the matched span, stamp a trace record with the next clock seq
//  4. No rule matches: the engine halts; halting is terminal until the
//     working string is reset with SetInitial
//
// The engine is single-threaded and fully synchronous. An Engine must not
// be shared between goroutines.
//
// CRITICAL PATTERNS:
//
// Restart From Rule 0:
// Every step restarts from the first rule regardless of which rule fired
// before. Changing this changes both termination and results.
//
// Unbounded Runs:
// Run has no step limit unless WithMaxSteps is given. A rule set that
// never halts makes Run loop until its context is cancelled.
package engine
