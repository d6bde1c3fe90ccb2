// Package filter decides which classified records reach the database.
package filter

import "github.com/dhcgn/mbox2db/model"

// Policy controls whether Spam and Trash labeled messages are written.
// The classifier reports facts; the policy applies the user's choice.
type Policy struct {
	IncludeSpam  bool
	IncludeTrash bool
}

// NewPolicy builds a policy from the CLI switches. The combined switch
// turns both on.
func NewPolicy(includeSpam, includeTrash, includeBoth bool) Policy {
	return Policy{
		IncludeSpam:  includeSpam || includeBoth,
		IncludeTrash: includeTrash || includeBoth,
	}
}

// Allows reports whether a record with the given verdict should be kept.
// Unlabeled records always pass.
func (p Policy) Allows(v model.LabelVerdict) bool {
	if v.IsSpam && !p.IncludeSpam {
		return false
	}
	if v.IsTrash && !p.IncludeTrash {
		return false
	}
	return true
}
