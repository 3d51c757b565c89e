package models

import "strings"

// Role is a member's rank inside a clan. Ranks are totally ordered.
type Role string

const (
	RoleRecruit   Role = "RECRUIT"
	RoleSenior    Role = "SENIOR"
	RoleCommodore Role = "COMMODORE"
	RoleAdmiral   Role = "ADMIRAL"

	// TopRole is held by exactly one member: the clan owner.
	TopRole = RoleAdmiral
)

var roleOrder = []Role{RoleRecruit, RoleSenior, RoleCommodore, RoleAdmiral}

// Rank returns the position of r in the role order, or -1 if r is unknown.
func (r Role) Rank() int {
	for i, role := range roleOrder {
		if role == r {
			return i
		}
	}
	return -1
}

func (r Role) Valid() bool { return r.Rank() >= 0 }

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool { return r.Rank() >= min.Rank() }

// Next returns the role one rank above r, or r itself at the top.
func (r Role) Next() Role {
	i := r.Rank()
	if i < 0 || i == len(roleOrder)-1 {
		return r
	}
	return roleOrder[i+1]
}

// Previous returns the role one rank below r, or r itself at the bottom.
func (r Role) Previous() Role {
	i := r.Rank()
	if i <= 0 {
		return r
	}
	return roleOrder[i-1]
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// SlotTier is a clan's purchased member capacity level.
type SlotTier string

const (
	SlotsInitial SlotTier = "INITIAL"
	SlotsFirst   SlotTier = "FIRST"
	SlotsSecond  SlotTier = "SECOND"
	SlotsThird   SlotTier = "THIRD"
	SlotsFourth  SlotTier = "FOURTH"
	SlotsFifth   SlotTier = "FIFTH"
	SlotsSixth   SlotTier = "SIXTH"
)

// SlotTiers lists every tier from lowest to highest.
var SlotTiers = []SlotTier{SlotsInitial, SlotsFirst, SlotsSecond, SlotsThird, SlotsFourth, SlotsFifth, SlotsSixth}

func (t SlotTier) index() int {
	for i, tier := range SlotTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// Next returns the following tier, or t itself when already at the last one.
func (t SlotTier) Next() SlotTier {
	i := t.index()
	if i < 0 || i == len(SlotTiers)-1 {
		return t
	}
	return SlotTiers[i+1]
}

func (t SlotTier) IsLast() bool { return t.index() == len(SlotTiers)-1 }

// Capacity sums the per-tier increments of every tier up to and including t.
// plus is keyed by the lowercase tier name.
func (t SlotTier) Capacity(plus map[string]int) int {
	i := t.index()
	if i < 0 {
		i = 0
	}
	total := 0
	for _, tier := range SlotTiers[:i+1] {
		total += plus[strings.ToLower(string(tier))]
	}
	return total
}

type JoinType string

const (
	JoinOpen   JoinType = "OPEN"
	JoinInvite JoinType = "INVITE"
)

func ParseJoinType(s string) (JoinType, bool) {
	jt := JoinType(strings.ToUpper(strings.TrimSpace(s)))
	return jt, jt == JoinOpen || jt == JoinInvite
}

// Tariff names an advertisement duration/cost plan. Plans are configured in settings.
type Tariff string

const (
	Tariff12 Tariff = "TARIFF_12"
	Tariff24 Tariff = "TARIFF_24"
)
