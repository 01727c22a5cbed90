// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the external text-generation and embedding capabilities
// behind small interfaces so the pipeline stages and their tests can supply
// mocks.
package llm

import "context"

// TextBackend generates free-form text from a system instruction and a user
// prompt. Implementations return the raw response text; parsing belongs to
// the caller.
type TextBackend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// EmbedBackend converts texts into fixed-length numeric vectors, one per
// input in the same order. Embedding fails as a single unit; there are no
// partial results.
type EmbedBackend interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
