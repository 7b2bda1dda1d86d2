package kart

import "strings"

// SlotKind tells a weapon from a shield in the left and right slots.
type SlotKind uint8

const (
	Weapon SlotKind = iota
	Shield
)

func (k SlotKind) String() string {
	if k == Shield {
		return "shield"
	}
	return "weapon"
}

// Slot is a decoded left or right slot value.
type Slot struct {
	Kind  SlotKind
	Index uint8
}

// Classify decodes a raw left/right value into its category and local index.
func Classify(raw uint8) Slot {
	if raw >= ShieldOffset {
		return Slot{Kind: Shield, Index: raw - ShieldOffset}
	}
	return Slot{Kind: Weapon, Index: raw}
}

// withinCategory checks the slot against its category size.
func (s Slot) withinCategory() bool {
	if s.Kind == Shield {
		return s.Index < NumShields
	}
	return s.Index < NumWeapons
}

// Validate enforces the equip rules on candidate. Category bounds are
// checked before level gating, and the first failure is returned. Decal
// unlocks are looked up in previous so a caller cannot grant itself one.
func Validate(candidate, previous Config) error {
	maxIndex := MaxIndex(candidate.Level)
	left := Classify(candidate.Left)
	right := Classify(candidate.Right)

	switch {
	case candidate.Front >= NumWeaponsMelee:
		return ErrFrontIndexTooHigh
	case candidate.Transport >= NumTransports:
		return ErrTransportIndexTooHigh
	case candidate.Skin >= NumSkins:
		return ErrSkinIndexTooHigh
	}

	if !left.withinCategory() {
		if left.Kind == Shield {
			return ErrShieldLeftTooHigh
		}
		return ErrWeaponLeftTooHigh
	}
	if !right.withinCategory() {
		if right.Kind == Shield {
			return ErrShieldRightTooHigh
		}
		return ErrWeaponRightTooHigh
	}

	switch {
	case candidate.Front > maxIndex:
		return ErrLevelTooLowFront
	case left.Index > maxIndex:
		return ErrLevelTooLowLeft
	case right.Index > maxIndex:
		return ErrLevelTooLowRight
	case candidate.Transport > maxIndex:
		return ErrLevelTooLowTransport
	case candidate.Skin > maxIndex:
		return ErrLevelTooLowSkin
	}

	d := candidate.Decal1
	if d != "" && d != NoDecal && d != FreeDecal && !ParseUnlocks(previous.Extra1).Has(d) {
		return ErrDecalNotUnlocked
	}
	return nil
}

// Unlocks is the ordered set of decal ids held in extra1.
type Unlocks []string

// ParseUnlocks splits a comma separated unlock list. An empty string yields
// a single empty entry, which Add replaces.
func ParseUnlocks(s string) Unlocks {
	return strings.Split(s, ",")
}

// Has reports whether id is an exact member.
func (u Unlocks) Has(id string) bool {
	for _, v := range u {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id and reports whether it was new.
func (u *Unlocks) Add(id string) bool {
	if u.Has(id) {
		return false
	}
	if len(*u) == 1 && (*u)[0] == "" {
		(*u)[0] = id
		return true
	}
	*u = append(*u, id)
	return true
}

func (u Unlocks) String() string {
	return strings.Join(u, ",")
}
