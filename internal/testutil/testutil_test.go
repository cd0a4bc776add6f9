package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedRunGenerator("run-42")
	for i := 0; i < 3; i++ {
		assert.Equal(t, "run-42", gen.Generate())
	}
}

func TestFixedRunGenerator_EmptyIDDefault(t *testing.T) {
	assert.Equal(t, DefaultRunID, NewFixedRunGenerator("").Generate())
}

func TestFixedRunGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedRunGenerator("run-1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "run-1", gen.Generate())
		}()
	}
	wg.Wait()
}

func TestSystems_AreWellFormed(t *testing.T) {
	systems := map[string]func() int{
		"literal": func() int { return len(LiteralSystem().Rules) },
		"backref": func() int { return len(BackrefSystem("11#11").Rules) },
		"chain":   func() int { return len(ChainSystem().Rules) },
		"growth":  func() int { return len(GrowthSystem().Rules) },
	}
	for name, rules := range systems {
		assert.Positive(t, rules(), name)
	}
	assert.Empty(t, LiteralSystem().ForeignChars(LiteralSystem().Initial))
}
