// Package agent runs a single LLM agent over a per-chat session: it
// feeds the stored conversation plus the incoming prompt to an LLM
// provider and resolves tool calls against the MCP tool server until
// the model produces a final textual answer.
package agent
