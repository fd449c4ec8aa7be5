package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Room is a static catalog entry for a bookable meeting room. Rooms are
// loaded once at process start and never change afterwards.
type Room struct {
	ID           string `yaml:"id"`
	Capacity     int    `yaml:"capacity"`
	HasProjector bool   `yaml:"has_projector"`
}

// Catalog is the immutable set of rooms the service accepts bookings for.
// It requires no locking: the map is built once and only read afterwards.
type Catalog struct {
	rooms map[string]Room
	order []string
}

// New builds a catalog from the given rooms, rejecting duplicates, blank ids,
// and non-positive capacities.
func New(rooms []Room) (*Catalog, error) {
	if len(rooms) == 0 {
		return nil, fmt.Errorf("catalog: at least one room is required")
	}

	byID := make(map[string]Room, len(rooms))
	order := make([]string, 0, len(rooms))
	for _, room := range rooms {
		id := strings.TrimSpace(room.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog: room with blank id")
		}
		if room.Capacity <= 0 {
			return nil, fmt.Errorf("catalog: room %s capacity must be positive", id)
		}
		if _, ok := byID[id]; ok {
			return nil, fmt.Errorf("catalog: duplicate room id %s", id)
		}
		room.ID = id
		byID[id] = room
		order = append(order, id)
	}

	return &Catalog{rooms: byID, order: order}, nil
}

// Default returns the built-in room catalog used when no rooms file is
// configured. The entries mirror the rooms of the original deployment.
func Default() *Catalog {
	catalog, err := New([]Room{
		{ID: "ISE_Meeting_Room_I_305_Fl1", Capacity: 8, HasProjector: true},
		{ID: "ISE_Meeting_Room_II_Fl2", Capacity: 20, HasProjector: true},
		{ID: "ISE_Meeting_Room_III_304/1_Fl1", Capacity: 20, HasProjector: true},
	})
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid built-in rooms: %v", err))
	}
	return catalog
}

type roomsFile struct {
	Rooms []Room `yaml:"rooms"`
}

// LoadFile reads a YAML rooms file of the form:
//
//	rooms:
//	  - id: ISE_Meeting_Room_I_305_Fl1
//	    capacity: 8
//	    has_projector: true
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var parsed roomsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	catalog, err := New(parsed.Rooms)
	if err != nil {
		return nil, fmt.Errorf("%w (from %s)", err, path)
	}
	return catalog, nil
}

// Contains reports whether the room id is part of the catalog.
func (c *Catalog) Contains(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.rooms[id]
	return ok
}

// Lookup returns the room entry for the given id.
func (c *Catalog) Lookup(id string) (Room, bool) {
	if c == nil {
		return Room{}, false
	}
	room, ok := c.rooms[id]
	return room, ok
}

// Rooms returns the catalog entries in their declaration order.
func (c *Catalog) Rooms() []Room {
	if c == nil {
		return nil
	}
	out := make([]Room, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.rooms[id])
	}
	return out
}

// RoomIDs returns the room identifiers sorted lexicographically, for callers
// that need a deterministic iteration order independent of file order.
func (c *Catalog) RoomIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	sort.Strings(ids)
	return ids
}

// Len returns the number of rooms in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rooms)
}
