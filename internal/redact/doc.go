// Package redact masks secrets in settings content before it is printed,
// for example in the diff shown by a dry run.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, and provider-specific tokens (Anthropic, OpenAI, GitHub, Slack).
//
// Key-based masking is also supported: values stored under configured key
// names are replaced with [REDACTED] whatever they look like.
package redact
