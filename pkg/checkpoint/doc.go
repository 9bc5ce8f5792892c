// Package checkpoint persists per-order screening results so that a run
// interrupted after some orders, or repeated on the same network, does not
// re-evaluate contingencies it has already scored.
//
// Each snapshot lives in its own file keyed by network, metric and order.
// The payload is snappy-compressed and framed with a CRC32 checksum of the
// compressed bytes:
//
//	[magic:4][version:1][payloadLen:4][payload:N][checksum:4][timestamp:8]
//
// Files are written to a temporary name and renamed into place, so a reader
// never observes a partial snapshot.
package checkpoint
