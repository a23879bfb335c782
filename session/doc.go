// Package session ties a send connection and a receive dispatch loop
// together behind one entry point: a single handle for both sides of
// an RTP stream.
package session
