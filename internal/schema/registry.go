package schema

import "fmt"

// Scale is the number of decimal places used by a scaled integer.
// Example: Scale=8 means the integer value is scaled by 1e8.
type Scale int32

// ScaleSpec defines scaling for common numeric fields.
type ScaleSpec struct {
	PriceScale    Scale
	QuantityScale Scale
}

// VenueID is the numeric identifier for a venue.
type VenueID uint16

// PairID is the numeric identifier for a trading pair.
type PairID uint32

// Venue describes a trading venue or broker.
type Venue struct {
	ID   VenueID
	Name string
}

// Pair describes a tradable base/quote pair.
type Pair struct {
	ID      PairID
	VenueID VenueID
	Name    string
	Base    string
	Quote   string
	Scale   ScaleSpec
}

// Registry stores venue and pair mappings in a compact form.
type Registry struct {
	venues      []Venue
	pairs       []Pair
	venueByName map[string]VenueID
	pairByName  map[string]PairID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		venueByName: make(map[string]VenueID),
		pairByName:  make(map[string]PairID),
	}
}

// AddVenue registers a new venue and returns its ID.
func (r *Registry) AddVenue(name string) (VenueID, error) {
	if name == "" {
		return 0, fmt.Errorf("venue name is empty")
	}
	if id, ok := r.venueByName[name]; ok {
		return id, fmt.Errorf("venue already exists: %s", name)
	}
	id := VenueID(len(r.venues) + 1)
	r.venues = append(r.venues, Venue{ID: id, Name: name})
	r.venueByName[name] = id
	return id, nil
}

// AddPair registers a new trading pair and returns its ID.
func (r *Registry) AddPair(name, base, quote string, venueID VenueID, scale ScaleSpec) (PairID, error) {
	if name == "" {
		return 0, fmt.Errorf("pair name is empty")
	}
	if base == "" || quote == "" {
		return 0, fmt.Errorf("pair assets are empty: %s", name)
	}
	if base == quote {
		return 0, fmt.Errorf("pair base equals quote: %s", name)
	}
	if venueID == 0 {
		return 0, fmt.Errorf("venue id is invalid")
	}
	if _, ok := r.Venue(venueID); !ok {
		return 0, fmt.Errorf("venue id not found: %d", venueID)
	}
	if id, ok := r.pairByName[name]; ok {
		return id, fmt.Errorf("pair already exists: %s", name)
	}
	id := PairID(len(r.pairs) + 1)
	r.pairs = append(r.pairs, Pair{
		ID:      id,
		VenueID: venueID,
		Name:    name,
		Base:    base,
		Quote:   quote,
		Scale:   scale,
	})
	r.pairByName[name] = id
	return id, nil
}

// Venue returns a venue by ID.
func (r *Registry) Venue(id VenueID) (Venue, bool) {
	idx := int(id) - 1
	if idx < 0 || idx >= len(r.venues) {
		return Venue{}, false
	}
	return r.venues[idx], true
}

// Pair returns a pair by ID.
func (r *Registry) Pair(id PairID) (Pair, bool) {
	idx := int(id) - 1
	if idx < 0 || idx >= len(r.pairs) {
		return Pair{}, false
	}
	return r.pairs[idx], true
}

// VenueIDByName resolves a venue name.
func (r *Registry) VenueIDByName(name string) (VenueID, bool) {
	id, ok := r.venueByName[name]
	return id, ok
}

// PairIDByName resolves a pair name.
func (r *Registry) PairIDByName(name string) (PairID, bool) {
	id, ok := r.pairByName[name]
	return id, ok
}

// PairAt returns the pair at the given index.
func (r *Registry) PairAt(index int) (Pair, bool) {
	if index < 0 || index >= len(r.pairs) {
		return Pair{}, false
	}
	return r.pairs[index], true
}

// PairCount returns the number of registered pairs.
func (r *Registry) PairCount() int {
	return len(r.pairs)
}
