package testutil

import "github.com/roach88/postsys/internal/ir"

// Small reference systems shared by package tests.

// LiteralSystem rewrites ab to ba over {a,b,c,d}, starting from "cabd".
func LiteralSystem() *ir.Definition {
	return &ir.Definition{
		Alphabet:  ir.CharSetOf("abcd"),
		Variables: ir.NewCharSet(),
		Axioms:    ir.NewCharSet(),
		Rules:     ir.RuleSet{{Pattern: "ab", Replacement: "ba"}},
		Initial:   "cabd",
	}
}

// BackrefSystem collapses v#v to # when both runs of 1s are equal.
func BackrefSystem(initial string) *ir.Definition {
	return &ir.Definition{
		Alphabet:  ir.CharSetOf("1#"),
		Variables: ir.CharSetOf("v"),
		Axioms:    ir.CharSetOf("1"),
		Rules:     ir.RuleSet{{Pattern: "v#v", Replacement: "#"}},
		Initial:   initial,
	}
}

// ChainSystem rewrites 1 to 2 and 2 to 3, starting from "1".
func ChainSystem() *ir.Definition {
	return &ir.Definition{
		Alphabet:  ir.CharSetOf("123"),
		Variables: ir.NewCharSet(),
		Axioms:    ir.NewCharSet(),
		Rules: ir.RuleSet{
			{Pattern: "1", Replacement: "2"},
			{Pattern: "2", Replacement: "3"},
		},
		Initial: "1",
	}
}

// GrowthSystem rewrites 1 to 11 and never halts.
func GrowthSystem() *ir.Definition {
	return &ir.Definition{
		Alphabet:  ir.CharSetOf("1"),
		Variables: ir.NewCharSet(),
		Axioms:    ir.NewCharSet(),
		Rules:     ir.RuleSet{{Pattern: "1", Replacement: "11"}},
		Initial:   "1",
	}
}
