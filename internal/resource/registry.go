// SPDX-License-Identifier: MIT

package resource

import "sync/atomic"

// Registry is the process-wide table: central
// ownership of zones, areas and applications, with resources holding
// stable integer handles into it rather than pointers to each other. It is
// shared by the screen and audio arbiters (screen/audio own their own
// handle namespaces and area/zone lists; only the tables themselves are
// shared) and is driven exclusively from the engine's single event-loop
// goroutine — see internal/engine.
type Registry struct {
	zones       map[ZoneID]*Zone
	areas       map[AreaID]*Area
	areasByZone map[ZoneID][]AreaID

	apps       map[AppID]*Application
	defaultApp *Application

	screens          map[ScreenHandle]*Screen
	screensBySurface map[int32]ScreenHandle

	audios map[AudioHandle]*Audio

	nextArea   uint32
	nextScreen uint32
	nextAudio  uint32
	audioIDSeq uint32
}

// NewRegistry builds an empty registry. Zones are pre-declared up front
// (ZoneMax is a small fixed enumeration) via DeclareZone.
func NewRegistry() *Registry {
	return &Registry{
		zones:            make(map[ZoneID]*Zone),
		areas:            make(map[AreaID]*Area),
		areasByZone:      make(map[ZoneID][]AreaID),
		apps:             make(map[AppID]*Application),
		screens:          make(map[ScreenHandle]*Screen),
		screensBySurface: make(map[int32]ScreenHandle),
		audios:           make(map[AudioHandle]*Audio),
	}
}

// DeclareZone registers a zone, creating it if it does not exist yet.
func (r *Registry) DeclareZone(id ZoneID, name string) *Zone {
	if z, ok := r.zones[id]; ok {
		z.Name = name
		return z
	}
	z := &Zone{ID: id, Name: name}
	r.zones[id] = z
	return z
}

func (r *Registry) Zone(id ZoneID) (*Zone, bool) {
	z, ok := r.zones[id]
	return z, ok
}

func (r *Registry) ZoneByName(name string) (*Zone, bool) {
	for _, z := range r.zones {
		if z.Name == name {
			return z, true
		}
	}
	return nil, false
}

func (r *Registry) Zones() []*Zone {
	out := make([]*Zone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}
	return out
}

// CreateArea allocates a new area in the given zone. Areas are created on
// demand, after the area's name has already been referenced by a
// not-yet-placed resource.
func (r *Registry) CreateArea(zone ZoneID, name, output string, x, y, w, h int32) *Area {
	id := AreaID(atomic.AddUint32(&r.nextArea, 1))
	a := &Area{
		ID:     id,
		Name:   name,
		Output: output,
		Zone:   zone,
		X:      x, Y: y, W: w, H: h,
		Overlap: make(map[AreaID]struct{}),
	}
	r.areas[id] = a
	r.areasByZone[zone] = append(r.areasByZone[zone], id)
	return a
}

func (r *Registry) Area(id AreaID) (*Area, bool) {
	a, ok := r.areas[id]
	return a, ok
}

// AreaByFullName resolves "output.name" to an area id.
func (r *Registry) AreaByFullName(fullName string) (*Area, bool) {
	for _, a := range r.areas {
		if a.FullName() == fullName || a.Name == fullName {
			return a, true
		}
	}
	return nil, false
}

// AreasInZone returns the areas belonging to a zone, in creation order.
func (r *Registry) AreasInZone(zone ZoneID) []*Area {
	ids := r.areasByZone[zone]
	out := make([]*Area, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.areas[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// DestroyArea releases the area's resource list without destroying the
// resources themselves.
func (r *Registry) DestroyArea(id AreaID) {
	a, ok := r.areas[id]
	if !ok {
		return
	}
	a.Resources = nil
	delete(r.areas, id)
	ids := r.areasByZone[a.Zone]
	for i, aid := range ids {
		if aid == id {
			r.areasByZone[a.Zone] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// RecomputeOverlaps recomputes which area rectangles intersect, for every
// area in the registry. Called after an area's geometry changes.
func (r *Registry) RecomputeOverlaps() {
	for _, a := range r.areas {
		a.Overlap = make(map[AreaID]struct{})
	}
	for idA, a := range r.areas {
		for idB, b := range r.areas {
			if idA == idB || a.Output != b.Output {
				continue
			}
			if rectsOverlap(a, b) {
				a.Overlap[idB] = struct{}{}
			}
		}
	}
}

func rectsOverlap(a, b *Area) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X && a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// --- Applications ---

// PutApplication inserts or updates an application descriptor.
// Applications are created once when discovered and updated in place;
// the arbiter itself never mutates one.
func (r *Registry) PutApplication(app *Application) {
	r.apps[app.AppID] = app
}

func (r *Registry) Application(id AppID) (*Application, bool) {
	a, ok := r.apps[id]
	return a, ok
}

// SetDefaultApplication installs the application consulted when a resource
// carries no resolvable appid attribute.
func (r *Registry) SetDefaultApplication(app *Application) {
	r.defaultApp = app
}

func (r *Registry) DefaultApplication() (*Application, bool) {
	return r.defaultApp, r.defaultApp != nil
}

// ResolveApplication looks up appid, falling back to the default
// application recorded at resource-creation time. ok is false only
// when neither the named application nor a default exists.
func (r *Registry) ResolveApplication(appid AppID) (*Application, bool) {
	if a, ok := r.apps[appid]; ok {
		return a, true
	}
	return r.DefaultApplication()
}

// --- Screen resources ---

func (r *Registry) NewScreenHandle() ScreenHandle {
	return ScreenHandle(atomic.AddUint32(&r.nextScreen, 1))
}

func (r *Registry) PutScreen(s *Screen) {
	r.screens[s.Handle] = s
	if s.SurfaceID != 0 {
		r.screensBySurface[s.SurfaceID] = s.Handle
	}
}

func (r *Registry) Screen(h ScreenHandle) (*Screen, bool) {
	s, ok := r.screens[h]
	return s, ok
}

func (r *Registry) ScreenBySurface(surfaceID int32) (*Screen, bool) {
	h, ok := r.screensBySurface[surfaceID]
	if !ok {
		return nil, false
	}
	return r.Screen(h)
}

func (r *Registry) DeleteScreen(h ScreenHandle) {
	if s, ok := r.screens[h]; ok {
		delete(r.screensBySurface, s.SurfaceID)
	}
	delete(r.screens, h)
}

// Screens returns every tracked screen resource; order is unspecified.
func (r *Registry) Screens() []*Screen {
	out := make([]*Screen, 0, len(r.screens))
	for _, s := range r.screens {
		out = append(out, s)
	}
	return out
}

// --- Audio resources ---

func (r *Registry) NewAudioHandle() AudioHandle {
	return AudioHandle(atomic.AddUint32(&r.nextAudio, 1))
}

func (r *Registry) NewAudioID() AudioID {
	return AudioID(atomic.AddUint32(&r.audioIDSeq, 1))
}

func (r *Registry) PutAudio(a *Audio) {
	r.audios[a.Handle] = a
}

func (r *Registry) Audio(h AudioHandle) (*Audio, bool) {
	a, ok := r.audios[h]
	return a, ok
}

func (r *Registry) DeleteAudio(h AudioHandle) {
	delete(r.audios, h)
}

func (r *Registry) Audios() []*Audio {
	out := make([]*Audio, 0, len(r.audios))
	for _, a := range r.audios {
		out = append(out, a)
	}
	return out
}
