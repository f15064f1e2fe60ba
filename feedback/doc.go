// Package feedback implements the ROHC FEEDBACK-1 and FEEDBACK-2 wire
// formats (spec §4.9) and the bounded FIFO a decompressor uses to queue
// feedback for piggybacking onto the next compressed packet travelling the
// other way.
package feedback
