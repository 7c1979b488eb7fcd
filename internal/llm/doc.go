// Package llm provides the OpenRouter-backed AI provider used for transaction
// categorization, merchant detection, and chat completion. It handles prompt
// construction, response parsing, streaming, retry logic, and rate limiting.
package llm
