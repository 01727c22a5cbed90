// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// CollectionError reports a document collection failure: the search
// capability errored, was unreachable, or returned no results. Fatal to the
// workflow; never retried by the orchestrator.
type CollectionError struct {
	Err error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("document collection: %v", e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// EmbeddingError reports an embedding capability failure. Fatal to the
// analysis stage.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding generation: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
