// Package synthesis turns an ordered chunk sequence plus a query into a
// final answer under a per-call prompt budget, using one of five
// combination strategies.
package synthesis

import (
	"strings"

	"ragline/llm"
	"ragline/node"
)

// Batch is a budget-bounded group of chunks sent in one model call.
// Oversized marks a single chunk whose own size already exceeds the usable
// budget; it is isolated rather than rejected, and downstream strategies
// decide how to handle it.
type Batch struct {
	Chunks    []node.Chunk
	Oversized bool
}

// Text concatenates the batch's chunk texts for prompt insertion.
func (b Batch) Text() string {
	parts := make([]string, len(b.Chunks))
	for i, c := range b.Chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n\n")
}

// Packer partitions chunks into batches by greedy accumulation in input
// order. Chunks are never reordered; identical input and budget always
// produce identical partitioning.
type Packer struct {
	sizer llm.Sizer
}

func NewPacker(sizer llm.Sizer) *Packer {
	return &Packer{sizer: sizer}
}

// Pack groups chunks so that the chunk sizes plus the per-call scaffold cost
// stay within budget. A single chunk larger than budget-scaffold becomes its
// own batch with Oversized set.
func (p *Packer) Pack(chunks []node.Chunk, budget, scaffold int) []Batch {
	usable := budget - scaffold

	var batches []Batch
	var current []node.Chunk
	running := 0

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, Batch{Chunks: current})
			current = nil
			running = 0
		}
	}

	for _, chunk := range chunks {
		size := p.sizer.EstimateSize(chunk.Text)
		if size > usable {
			flush()
			batches = append(batches, Batch{Chunks: []node.Chunk{chunk}, Oversized: true})
			continue
		}
		if running+size > usable {
			flush()
		}
		current = append(current, chunk)
		running += size
	}
	flush()

	return batches
}

// singles wraps every chunk in its own batch, bypassing budget packing.
// Used by the per-chunk refine strategy.
func singles(chunks []node.Chunk) []Batch {
	batches := make([]Batch, len(chunks))
	for i, c := range chunks {
		batches[i] = Batch{Chunks: []node.Chunk{c}}
	}
	return batches
}
