// Package cogency provides a streaming ReAct agent runtime.
//
// Given a user query, a language model, and a tool catalog, it runs a
// reason -> act -> reflect -> respond loop as a live event stream, while
// maintaining durable user/task state across a three-horizon model
// (profile, workspace, execution) and producing bounded, recoverable
// executions.
//
// # Core subsystems
//
//   - protocol: a streaming parser that turns an LLM token stream into
//     typed structural events (think, respond, call, execute, end) using
//     in-band sigil delimiters.
//   - engine: the ReAct execution loop — iteration budgeting, fast/deep
//     mode switching, forced completion, and failure recovery.
//   - state: the three-horizon state model (Profile, Workspace,
//     Execution, Conversation, KnowledgeArtifact).
//   - tool: the tool contract and scheduler, dispatching parallel or
//     sequential batches based on a mutator/shell dependency heuristic.
//   - store: the persistence contract and an in-memory reference
//     implementation.
//   - llm: the provider-agnostic streaming LLM contract.
//
// # Using as a Go library
//
//	import (
//	    "github.com/iteebz/cogency-sub003/engine"
//	    "github.com/iteebz/cogency-sub003/tool"
//	    "github.com/iteebz/cogency-sub003/store"
//	)
//
// LLM providers, concrete tool implementations, storage backends, and
// CLI/observability surfaces are external collaborators, not part of
// this package.
package cogency
