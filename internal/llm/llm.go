package llm

import llmclient "patentai/internal/llmClient"

// Client is the provider-agnostic completion interface. Providers live in
// llmclient; this package decorates them.
type Client = llmclient.Client

// ChatRequest re-exports llmclient.ChatRequest for callers of this package.
type ChatRequest = llmclient.ChatRequest
