// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import "time"

// Fingerprint summarises the categories table: its row count and the most
// recent updated_at. Any insert or delete changes Count, any update
// changes LastUpdate.
type Fingerprint struct {
	Count      int
	LastUpdate time.Time
}

// DefaultFingerprint is the fingerprint of an empty table.
func DefaultFingerprint() Fingerprint {
	return Fingerprint{LastUpdate: time.Unix(0, 0).UTC()}
}

// reconcile compares fp against a live reading and returns the updated
// fingerprint and whether anything differed. Both fields are always
// compared and refreshed.
func (fp Fingerprint) reconcile(count int, last time.Time) (Fingerprint, bool) {
	stale := false
	if fp.Count != count {
		fp.Count = count
		stale = true
	}
	if !fp.LastUpdate.Equal(last) {
		fp.LastUpdate = last
		stale = true
	}
	return fp, stale
}
