package dispatch

import (
	"context"
)

// ProgressUpdate is emitted once per folder boundary during a reconciliation
// pass, and whenever the sweep flags or removes items. Percent is nil for
// item-only updates.
type ProgressUpdate struct {
	LibraryPathID  int
	Percent        *int
	AddedItemIDs   []int
	UpdatedItemIDs []int
	RemovedItemIDs []int
}

// RebuildRequest tells the playout builder that previously computed timeline
// content for a channel may be stale. Delivery is at-least-once; the consumer
// treats duplicates as no-ops.
type RebuildRequest struct {
	ChannelID int
	Mode      string
}

// Dispatcher is the work-queue boundary the reconciliation engines publish
// to. Implementations must preserve the order of events published by a single
// operation; ordering across operations is unspecified.
type Dispatcher interface {
	Progress(ctx context.Context, update ProgressUpdate) error
	RequestRebuild(ctx context.Context, req RebuildRequest) error
}
