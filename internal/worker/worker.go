package worker

import "context"

// Job is a unit of background work. Jobs report failures through their
// return value and must never take the process down.
type Job func(ctx context.Context) error
