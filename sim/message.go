package sim

// DropReason classifies why a message was destroyed before reaching the sink.
// Drops are modeled outcomes, never errors.
type DropReason string

const (
	// DropLinkLoss: the per-hop loss draw failed. No retransmission.
	DropLinkLoss DropReason = "link_loss"
	// DropQueueFull: the next hop's outbound queue was at capacity (drop-tail).
	DropQueueFull DropReason = "queue_full"
	// DropHopsExhausted: the message's hop budget reached zero before the sink.
	DropHopsExhausted DropReason = "hops_exhausted"
)

// Message is a single POI event report in flight toward the sink.
// A message is destroyed on delivery, on drop, or on hop-budget exhaustion.
type Message struct {
	// OriginID is the sensor that generated the report.
	OriginID int
	// POIID is the point of interest the report describes.
	POIID int
	// Tag is the payload event type.
	Tag string
	// HopBudget is the number of hops the message may still take.
	HopBudget int
	// Delay is the transmission delay accumulated so far, in round fractions.
	Delay float64
	// CreatedAt is the round the message was generated in.
	CreatedAt int
}
