package oracle

// Conversation is caller-owned prior-turn state for stateful passes. It has a
// single-writer contract: exactly one goroutine calls Observe, so the
// sequential per-item passes can thread context without locking. Concurrent
// passes must not share a Conversation.
type Conversation struct {
	turns []Turn
}

// Turns returns the accumulated turns in order. The returned slice is shared;
// callers must not modify it.
func (c *Conversation) Turns() []Turn {
	if c == nil {
		return nil
	}
	return c.turns
}

// Observe appends a completed prompt/reply exchange to the conversation.
func (c *Conversation) Observe(prompt, reply string) {
	if c == nil {
		return
	}
	c.turns = append(c.turns,
		Turn{Role: "user", Content: prompt},
		Turn{Role: "assistant", Content: reply},
	)
}

// Len returns the number of accumulated turns.
func (c *Conversation) Len() int {
	if c == nil {
		return 0
	}
	return len(c.turns)
}
