// Package gate holds the messaging-rights policy for group chats: new members
// start restricted and earn the right to post by inviting others. It is pure
// decision logic; thresholds are persisted by the caller.
package gate

// DefaultThreshold applies to groups that never had a threshold set.
const DefaultThreshold = 5

// Decision tells the chat transport what to do after an invite was credited.
type Decision struct {
	// RestrictJoinee is set for every human joinee: new members cannot post
	// until they earn invites of their own.
	RestrictJoinee bool `json:"restrictJoinee"`
	// GrantInviter is set once the inviter's count reaches the threshold.
	GrantInviter bool `json:"grantInviter"`
	// Invites and Needed describe the inviter's progress for the reply text.
	Invites int `json:"invites"`
	Needed  int `json:"needed"`
}

// Decide evaluates an inviter's progress against the group threshold.
func Decide(invites, threshold int) Decision {
	d := Decision{
		RestrictJoinee: true,
		Invites:        invites,
		Needed:         threshold,
	}
	if invites >= threshold {
		d.GrantInviter = true
	}
	return d
}

// Allowed reports whether a member with the given invite count may post.
func Allowed(invites, threshold int) bool {
	return invites >= threshold
}

// ValidThreshold reports whether an admin-supplied threshold is acceptable.
func ValidThreshold(n int) bool { return n >= 1 }
