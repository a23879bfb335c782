// Package hevc implements the RFC 7798 HEVC fragmentation-unit send
// path and the receive-side reassembly of fragmented, aggregated, or
// whole NAL units back into access units.
package hevc
