// Package perm implements the role-tag model used for authorization.
//
// Identities carry a minimal set of role tags. The full capability set is
// derived at check time by expanding the fixed tag hierarchy; the expanded
// closure is never stored. DISABLED has the highest precedence and strips
// every other tag.
package perm

// Tag is an opaque role tag attached to an identity.
type Tag string

// Role tags known to the application.
const (
	// TagAdmin grants every capability including user and settings management.
	TagAdmin Tag = "ADMIN"
	// TagModifier grants write access to all asset inventories.
	TagModifier Tag = "MODIFIEUR"
	// TagViewAll grants read access to all asset inventories.
	TagViewAll Tag = "VIEW_ALL"
	// TagViewLines grants read access to the phone line inventory.
	TagViewLines Tag = "VIEW_LINES"
	// TagViewPark grants read access to the computer equipment inventory.
	TagViewPark Tag = "VIEW_PARK"
	// TagViewBoxes grants read access to the network box inventory.
	TagViewBoxes Tag = "VIEW_BOXES"
	// TagDisabled marks an identity as disabled. It overrides every other tag.
	TagDisabled Tag = "DISABLED"
)

// implied maps each tag to the tags it directly grants.
var implied = map[Tag][]Tag{
	TagAdmin:    {TagModifier, TagViewAll, TagViewLines, TagViewPark, TagViewBoxes},
	TagModifier: {TagViewAll, TagViewLines, TagViewPark, TagViewBoxes},
	TagViewAll:  {TagViewLines, TagViewPark, TagViewBoxes},
}

// precedence is the fixed ordering used to produce deterministic minimal sets.
var precedence = []Tag{TagAdmin, TagModifier, TagViewAll, TagViewLines, TagViewPark, TagViewBoxes}

// Expand returns the full closure of the given tags under the hierarchy.
// The result includes the input tags themselves. If DISABLED is present the
// closure is exactly {DISABLED}.
func Expand(tags []Tag) map[Tag]bool {
	out := make(map[Tag]bool, len(tags))

	for _, t := range tags {
		if t == TagDisabled {
			return map[Tag]bool{TagDisabled: true}
		}
	}

	var walk func(t Tag)
	walk = func(t Tag) {
		if out[t] {
			return
		}

		out[t] = true

		for _, sub := range implied[t] {
			walk(sub)
		}
	}

	for _, t := range tags {
		walk(t)
	}

	return out
}

// Normalize reduces a tag set to its minimal stored form: tags implied by
// another kept tag are removed. DISABLED collapses the set to {DISABLED}.
// The result is ordered by the fixed tag precedence, so normalizing twice
// yields the same slice.
func Normalize(tags []Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}

	present := make(map[Tag]bool, len(tags))
	for _, t := range tags {
		if t == TagDisabled {
			return []Tag{TagDisabled}
		}

		present[t] = true
	}

	var out []Tag

	for _, t := range precedence {
		if !present[t] {
			continue
		}

		// drop t if any other present tag already implies it
		redundant := false

		for other := range present {
			if other == t {
				continue
			}

			if Expand([]Tag{other})[t] {
				redundant = true
				break
			}
		}

		if !redundant {
			out = append(out, t)
		}
	}

	return out
}

// Permissions exposes the coarse-grained capability predicates controllers
// query. It is a pure view over an expanded tag closure.
type Permissions struct {
	expanded map[Tag]bool
}

// FromTags builds the Permissions view for a stored (minimal) tag set.
func FromTags(tags []Tag) Permissions {
	return Permissions{expanded: Expand(tags)}
}

// IsDisabled reports whether the identity is disabled.
func (p Permissions) IsDisabled() bool { return p.expanded[TagDisabled] }

// IsAdmin reports whether the identity carries the ADMIN tag.
func (p Permissions) IsAdmin() bool { return p.expanded[TagAdmin] }

// IsModifier reports whether the identity may modify asset records.
func (p Permissions) IsModifier() bool { return p.expanded[TagModifier] }

// CanModify is an alias of IsModifier matching the controller vocabulary.
func (p Permissions) CanModify() bool { return p.IsModifier() }

// CanManageUsers reports whether the identity may administer the whitelist
// and runtime settings. Only administrators can.
func (p Permissions) CanManageUsers() bool { return p.IsAdmin() }

// CanViewLines reports read access to the phone line inventory.
func (p Permissions) CanViewLines() bool { return p.expanded[TagViewLines] }

// CanViewEquipment reports read access to the computer equipment inventory.
func (p Permissions) CanViewEquipment() bool { return p.expanded[TagViewPark] }

// CanViewBoxes reports read access to the network box inventory.
func (p Permissions) CanViewBoxes() bool { return p.expanded[TagViewBoxes] }
