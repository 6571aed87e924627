package docmodel

// Sink consumes blocks in document order.
type Sink interface {
	Emit(block Block)
}

// Collector is a Sink that keeps every emitted block.
type Collector struct {
	Blocks []Block
}

// Emit implements Sink.
func (c *Collector) Emit(block Block) {
	c.Blocks = append(c.Blocks, block)
}

// Stats counts blocks by kind.
type Stats map[Kind]int

// Count returns per-kind counts for blocks.
func Count(blocks []Block) Stats {
	stats := make(Stats)
	for _, b := range blocks {
		stats[b.Kind()]++
	}
	return stats
}
