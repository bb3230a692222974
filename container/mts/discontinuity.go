/*
NAME
  discontinuity.go

DESCRIPTION
  discontinuity.go tracks per-PID continuity_counter expectations so a
  streaming reader can flag a gap in an incoming MPEG-TS as it's read
  (spec §4.C).

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

// ContinuityChecker tracks each PID's expected continuity_counter and
// reports when an incoming TS packet breaks the expected sequence. This
// is the read-side counterpart of an earlier write-side repairer that
// patched an outgoing resend clip's adaptation field before retransmit;
// Demuxer instead uses this to flag a gap in an incoming stream (spec
// §7: a continuity gap is Recoverable, the scan continues) rather than
// to fix one up before it leaves.
type ContinuityChecker struct {
	expCC map[int]int
}

// NewContinuityChecker returns a ContinuityChecker with no PIDs seen yet.
func NewContinuityChecker() *ContinuityChecker {
	return &ContinuityChecker{expCC: make(map[int]int)}
}

// Check reports whether cc is the expected next continuity_counter for
// pid (a PID seen for the first time is always reported continuous), then
// advances the expectation to cc+1 mod 16 regardless of the result, so an
// isolated gap doesn't cascade into a flood of false positives on every
// packet after it.
func (c *ContinuityChecker) Check(pid, cc int) bool {
	expect, seen := c.ExpectedCC(pid)
	ok := !seen || cc == expect
	c.SetExpectedCC(pid, cc)
	c.IncExpectedCC(pid)
	return ok
}

// ExpectedCC returns the continuity_counter expected next for pid. If pid
// hasn't been seen yet, it returns (16, false): 16 is outside
// continuity_counter's 4-bit range so it never collides with a real value.
func (c *ContinuityChecker) ExpectedCC(pid int) (int, bool) {
	v, ok := c.expCC[pid]
	if !ok {
		return 16, false
	}
	return v, true
}

// IncExpectedCC advances pid's expectation by one, wrapping mod 16.
func (c *ContinuityChecker) IncExpectedCC(pid int) {
	c.expCC[pid] = (c.expCC[pid] + 1) & 0xf
}

// SetExpectedCC sets pid's expectation directly, e.g. after observing an
// actual (possibly discontinuous) cc.
func (c *ContinuityChecker) SetExpectedCC(pid, cc int) {
	c.expCC[pid] = cc
}
