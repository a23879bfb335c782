// Package annexb scans Annex-B byte streams for NAL unit start codes
// and slices a buffer into the NAL units between them.
//
// The scanner reads data a machine word at a time, using the classic
// zero-byte bit trick to skip whole runs of non-start-code bytes
// without a per-byte counter, then falls back to direct byte
// comparison to classify a 3- versus 4-byte start code once a
// candidate zero is found nearby.
package annexb
