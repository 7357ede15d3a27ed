package metastore

import "context"

// Noop is the Store used when no metadata table is configured. Every write
// succeeds without doing anything and every read reports not-found.
type Noop struct{}

var _ Store = Noop{}

func (Noop) PutScreenshot(context.Context, *Screenshot) error { return nil }

func (Noop) PutBatch(context.Context, *Batch) error { return nil }

func (Noop) GetBatch(context.Context, string) (*Batch, error) { return nil, nil }

func (Noop) CompleteBatch(context.Context, string, BatchCompletion) error { return nil }

func (Noop) PutFrame(context.Context, string, *Frame) error { return nil }
