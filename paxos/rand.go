package paxos

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/fspore/trex/clock"
)

// randomTimeout is var-assigned, grounded on the teacher's pattern of
// making timing-sensitive functions swappable for tests (e.g. the
// teacher's getTimeoutEvent). Tests substitute a deterministic function;
// production leaves this one, which draws from crypto/rand per §9's
// requirement that timeout jitter come from an unpredictable source to
// reduce the chance of two followers duelling for leadership at once.
var randomTimeout = func(now clock.Tick, min, max time.Duration) clock.Tick {
	span := int64((max - min).Milliseconds())
	if span <= 0 {
		return now + clock.Tick(min.Milliseconds())
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is a platform-level emergency; fall back to
		// the minimum rather than panic mid-dispatch.
		return now + clock.Tick(min.Milliseconds())
	}
	n := int64(binary.BigEndian.Uint64(buf[:])) % span
	if n < 0 {
		n = -n
	}
	return now + clock.Tick(min.Milliseconds()+n)
}
