// Package agents declares the Gmail assistant's agents and routes requests
// between them.
//
// The catalog holds a root coordinator (gmail_manager) with seven
// specialised sub-agents, plus a flat "manager" agent that carries every
// operation. Each agent is a static declaration: a model identifier, an
// instruction loaded from an embedded markdown file, the tool names it may
// call and its sub-agents. No model is invoked here.
//
// The Classifier maps free-form text to a Request naming the owning agent
// and the tool call that answers it. It walks an ordered table of regular
// expressions and the first match wins; anything unmatched falls back to the
// root agent's unread listing.
//
// RegisterPrompts publishes the agents as MCP prompts so that a model host
// can adopt an agent's instruction and tool list.
package agents
