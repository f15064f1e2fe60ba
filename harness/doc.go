// Package harness provides an in-memory, deterministic delivery pipeline for
// exercising a Compressor/Decompressor pair the way a lossy, reordering link
// would: selected packets can be dropped or delayed before reaching the
// decompressor, and every attempt is recorded for test assertions. It
// mirrors, entirely in memory, the shape a real transport link would give
// this module without any actual network I/O.
//
// # Usage
//
//	comp, _ := rohc.NewCompressor(rohc.DefaultConfig(), nil)
//	decomp, _ := rohc.NewDecompressor(rohc.DefaultConfig(), nil, nil)
//	p := harness.NewPipeline(comp, decomp)
//	p.DropAt(5, 6) // drop the 6th and 7th packets sent
//
//	for i, pkt := range packets {
//	    got, err := p.Send(pkt, i+1)
//	    ...
//	}
//
//	for _, rec := range p.Log() {
//	    if rec.Dropped { ... }
//	}
//
// # Thread Safety
//
// Pipeline's delivery log, send counter and drop set are protected by an
// internal sync.RWMutex. Send and SendRawWire call into the Compressor and
// Decompressor without holding it, and those endpoints do no locking of
// their own, so concurrent Send calls are not safe.
package harness
