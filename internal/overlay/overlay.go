// SPDX-License-Identifier: MIT

// Package overlay implements the disable overlay: a
// set of operator-installed rules that block resources from being granted
// without deleting them from the registry. Rules are evaluated independently
// per family (screen, audio); a resource is disabled if any installed rule
// matches it, and the matching rule's kind is recorded in the resource's
// DisableMask so multiple rules of different kinds can be in effect at once
// without clobbering each other.
package overlay

import (
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

// Kind identifies which predicate a Rule evaluates.
type Kind int

const (
	// KindRequisite disables resources whose declared Requisite mask does
	// not cover the rule's vehicle-state query.
	KindRequisite Kind = iota
	// KindAppID disables every resource owned by a specific application.
	KindAppID
	// KindSurfaceID disables a single screen resource by surface id. It
	// has no meaning for audio.
	KindSurfaceID
)

func (k Kind) String() string {
	switch k {
	case KindRequisite:
		return "requisite"
	case KindAppID:
		return "appid"
	case KindSurfaceID:
		return "surfaceid"
	default:
		return "unknown"
	}
}

// ParseKind parses the String() form of a Kind back into its value.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "requisite":
		return KindRequisite, true
	case "appid":
		return KindAppID, true
	case "surfaceid":
		return KindSurfaceID, true
	default:
		return 0, false
	}
}

func (k Kind) mask() resource.DisableMask {
	switch k {
	case KindRequisite:
		return resource.DisableRequisite
	case KindAppID:
		return resource.DisableAppID
	case KindSurfaceID:
		return resource.DisableSurfaceID
	default:
		return 0
	}
}

// Rule is one operator-installed disable predicate. Exactly one of the
// fields relevant to Kind is meaningful; the rest are zero.
type Rule struct {
	Kind Kind

	// KindRequisite: a resource is disabled unless its declared Requisite
	// covers every bit in Query.
	Query resource.Requisite

	// KindAppID: disables every resource owned by AppID.
	AppID resource.AppID

	// KindSurfaceID: disables the screen resource with this SurfaceID.
	SurfaceID int32
}

func (r Rule) matchesScreen(s *resource.Screen) bool {
	switch r.Kind {
	case KindRequisite:
		return !s.Requisite.Covers(r.Query)
	case KindAppID:
		return r.AppID == "*" || s.AppID == r.AppID
	case KindSurfaceID:
		return s.SurfaceID == r.SurfaceID
	default:
		return false
	}
}

func (r Rule) matchesAudio(a *resource.Audio) bool {
	switch r.Kind {
	case KindRequisite:
		return !a.Requisite.Covers(r.Query)
	case KindAppID:
		return r.AppID == "*" || a.AppID == r.AppID
	default:
		return false
	}
}

// Overlay holds the currently installed rule set, split by family since a
// KindSurfaceID rule only ever applies to screen.
type Overlay struct {
	screenRules []Rule
	audioRules  []Rule
}

func New() *Overlay {
	return &Overlay{}
}

// InstallScreen and InstallAudio replace the entire rule set for one family. Replacing rather
// than appending matches how the operator API presents disable/enable —
// treats the rule set as a single declarative snapshot per
// family, not an accumulating log.
func (o *Overlay) InstallScreen(rules []Rule) { o.screenRules = rules }
func (o *Overlay) InstallAudio(rules []Rule)  { o.audioRules = rules }

func (o *Overlay) ScreenRules() []Rule { return o.screenRules }
func (o *Overlay) AudioRules() []Rule  { return o.audioRules }

// ApplyScreen recomputes s.Disable from the installed screen rule set.
// Returns true if the mask changed, so the caller knows whether this
// resource's grant eligibility may now be different and a regrant pass is
// needed.
func ApplyScreen(o *Overlay, s *resource.Screen) bool {
	before := s.Disable
	var m resource.DisableMask
	for _, r := range o.screenRules {
		if r.matchesScreen(s) {
			m |= r.Kind.mask()
		}
	}
	s.Disable = m
	return m != before
}

// ApplyAudio recomputes a.Disable from the installed audio rule set.
func ApplyAudio(o *Overlay, a *resource.Audio) bool {
	before := a.Disable
	var m resource.DisableMask
	for _, r := range o.audioRules {
		if r.matchesAudio(a) {
			m |= r.Kind.mask()
		}
	}
	a.Disable = m
	return m != before
}

// ApplyAllScreens recomputes the disable mask of every screen resource in
// reg, returning the resources whose mask changed. The caller regrants the
// zones those resources live in if touched is non-empty (: "a disable/enable that
// changes nothing at the current grant triggers no regrant").
func ApplyAllScreens(o *Overlay, reg *resource.Registry) (touched []*resource.Screen) {
	for _, s := range reg.Screens() {
		if ApplyScreen(o, s) {
			touched = append(touched, s)
		}
	}
	return touched
}

// ApplyAllAudios recomputes the disable mask of every audio resource in reg.
func ApplyAllAudios(o *Overlay, reg *resource.Registry) (touched []*resource.Audio) {
	for _, a := range reg.Audios() {
		if ApplyAudio(o, a) {
			touched = append(touched, a)
		}
	}
	return touched
}
