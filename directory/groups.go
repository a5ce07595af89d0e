package directory

import (
	"errors"
	"log"
	"sync"

	"github.com/samber/lo"

	"chatrelay/models"
)

var (
	ErrGroupExists   = errors.New("group already exists")
	ErrGroupNotFound = errors.New("group not found")
	ErrAlreadyMember = errors.New("already a member")
)

// GroupSaver persists the full group set; failures are logged only.
type GroupSaver interface {
	SaveGroups([]models.Group) error
}

// Groups is the registry of known groups. Callers always receive
// copies; the registry is the sole owner of the member sets.
type Groups struct {
	mu     sync.Mutex
	groups []models.Group
	saver  GroupSaver
}

func NewGroups(groups []models.Group, saver GroupSaver) *Groups {
	return &Groups{groups: groups, saver: saver}
}

// Create registers a new group under the caller-supplied id. The
// creator is always the first member; duplicates and empty names in
// the initial member list are dropped.
func (g *Groups) Create(id, name, creator string, members []string) (models.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.groups {
		if g.groups[i].ID == id {
			return models.Group{}, ErrGroupExists
		}
	}

	grp := models.Group{
		ID:      id,
		Name:    name,
		Creator: creator,
		Members: lo.Uniq(lo.Compact(append([]string{creator}, members...))),
	}
	g.groups = append(g.groups, grp)
	g.persistLocked()
	return copyGroup(grp), nil
}

// FindByID returns a copy of the group with the given id.
func (g *Groups) FindByID(id string) (models.Group, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.groups {
		if g.groups[i].ID == id {
			return copyGroup(g.groups[i]), true
		}
	}
	return models.Group{}, false
}

// FindByName returns a copy of the first group with the given name.
func (g *Groups) FindByName(name string) (models.Group, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.groups {
		if g.groups[i].Name == name {
			return copyGroup(g.groups[i]), true
		}
	}
	return models.Group{}, false
}

// AddMember adds username to the group. Adding an existing member is a
// no-op reported as ErrAlreadyMember so the caller can answer with an
// informational notice instead of an error.
func (g *Groups) AddMember(groupID, username string) (models.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.groups {
		if g.groups[i].ID != groupID {
			continue
		}
		if lo.Contains(g.groups[i].Members, username) {
			return copyGroup(g.groups[i]), ErrAlreadyMember
		}
		g.groups[i].Members = append(g.groups[i].Members, username)
		g.persistLocked()
		return copyGroup(g.groups[i]), nil
	}
	return models.Group{}, ErrGroupNotFound
}

// All returns a snapshot of every group.
func (g *Groups) All() []models.Group {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]models.Group, 0, len(g.groups))
	for i := range g.groups {
		out = append(out, copyGroup(g.groups[i]))
	}
	return out
}

func (g *Groups) persistLocked() {
	if g.saver == nil {
		return
	}
	if err := g.saver.SaveGroups(g.groups); err != nil {
		log.Printf("Failed to save groups: %v", err)
	}
}

func copyGroup(g models.Group) models.Group {
	out := g
	out.Members = make([]string, len(g.Members))
	copy(out.Members, g.Members)
	return out
}
