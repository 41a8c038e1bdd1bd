// Package campaign implements a marketing-automation campaign engine:
// a campaign owns a tree of typed events attached to leads, and the
// engine fires each eligible event at most once per lead.
//
// The package has two cores. RebuildEvents reconstructs a campaign's
// event tree from a client-submitted diff, assigning fractional order
// keys that encode tree position in a single sortable number and
// pruning subtrees whose ancestors were deleted. Engine evaluates
// events against leads: it gates on session anonymity, skips events
// already applied to the lead, dispatches to the handler registered
// for the event's type, and batches the resulting log writes.
//
// Collaborators (lead storage, the fired-event log, session identity,
// clock and IP resolution) are injected through small interfaces so the
// engine can be embedded in any persistence setup. See the eventlog
// subpackage for ready-made log stores.
package campaign
