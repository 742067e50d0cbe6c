package docskema

import "strings"

// Presence records how a payload node came to exist.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Key appeared in the instance.
	PresenceWasNull                             // Value was an explicit null.
	PresenceDefaultApplied                      // Schema default filled an absent key.
	PresenceGenerated                           // Value generated by the schema (auto timestamps).
)

// Has reports whether all bits of q are set.
func (p Presence) Has(q Presence) bool { return p&q == q }

var presenceNames = [...]string{"seen", "null", "default", "generated"}

// String lists the set bits joined by "|", or "none".
func (p Presence) String() string {
	var parts []string
	for i, name := range presenceNames {
		if p&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// Presence collects the flags of every node under p keyed by instance pointer.
func (p *Payload) Presence() PresenceMap {
	pm := PresenceMap{}
	p.walk(func(n *Payload) bool {
		pm[n.Pointer] |= n.Flags
		return true
	})
	return pm
}
