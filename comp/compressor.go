package comp

import (
	"fmt"

	"github.com/skyhook-net/rohc/feedback"
	"github.com/skyhook-net/rohc/interfaces"
	"github.com/skyhook-net/rohc/ipheader"
	"github.com/skyhook-net/rohc/profile"
	"github.com/skyhook-net/rohc/rohcpacket"
)

// Compressor owns one endpoint's compressor-side contexts: a shared,
// immutable profile registry, a CID table (spec §5 "shared resources"), and
// one Context per active flow. Per spec §5 it is not internally
// parallel; the caller must serialize all calls against a single instance.
type Compressor struct {
	registry *profile.Registry
	cids     *profile.CIDTable
	cidMode  rohcpacket.CIDMode
	rtpPorts map[uint16]bool
	cfg      Config
	trace    interfaces.TraceSink

	contexts map[uint16]*Context
}

// New creates a Compressor. registry must already be sealed.
func New(registry *profile.Registry, maxCID uint16, mode rohcpacket.CIDMode, rtpPorts []uint16, cfg Config, trace interfaces.TraceSink) *Compressor {
	if trace == nil {
		trace = interfaces.NopTraceSink{}
	}
	ports := make(map[uint16]bool, len(rtpPorts))
	for _, p := range rtpPorts {
		ports[p] = true
	}
	return &Compressor{
		registry: registry,
		cids:     profile.NewCIDTable(maxCID),
		cidMode:  mode,
		rtpPorts: ports,
		cfg:      cfg,
		trace:    trace,
		contexts: make(map[uint16]*Context),
	}
}

// Compress classifies packet against the profile registry, looks up or
// creates its context, and returns the compressed ROHC bytes.
func (c *Compressor) Compress(packet []byte, now int) ([]byte, error) {
	chain, err := ipheader.Parse(packet, ipheader.ParseOptions{RTPPorts: c.rtpPorts})
	if err != nil {
		return nil, err
	}

	id, key, err := c.registry.Classify(chain)
	if err != nil {
		return nil, err
	}

	cid, evictedCID, evicted := c.cids.Allocate(key)
	if evicted {
		delete(c.contexts, evictedCID)
		c.trace.Trace(1, evictedCID, fmt.Sprintf("compressor: evicted context for cid %d to make room for new flow", evictedCID))
	}

	ctx, ok := c.contexts[cid]
	if !ok {
		ctx = NewContext(cid, c.cidMode, id, key, c.cfg, now)
		c.contexts[cid] = ctx
		c.trace.Trace(0, cid, fmt.Sprintf("compressor: created context cid=%d profile=%s", cid, id))
	}

	out, err := ctx.Compress(chain, now)
	if err != nil {
		return nil, err
	}
	// The ROHC header replaces only the parsed header chain; the upper-layer
	// payload crosses the wire unmodified, appended after it.
	out = append(out, packet[chain.HeaderLen:]...)
	c.trace.Trace(0, cid, fmt.Sprintf("compressor: cid=%d state=%s emitted %d bytes", cid, ctx.State, len(out)))
	return out, nil
}

// ApplyFeedback routes a decoded FEEDBACK-2 element to the context it
// concerns, if one still exists.
func (c *Compressor) ApplyFeedback(cid uint16, ack feedback.AckType) {
	if ctx, ok := c.contexts[cid]; ok {
		ctx.ApplyFeedback(ack)
	}
}

// Context returns the context for cid, if any, mostly for tests and
// diagnostics.
func (c *Compressor) Context(cid uint16) (*Context, bool) {
	ctx, ok := c.contexts[cid]
	return ctx, ok
}

// ContextCount reports how many flows currently hold a context.
func (c *Compressor) ContextCount() int {
	return len(c.contexts)
}
