package tracking

import "strings"

// VisibleEntities returns the entities whose id contains searchTerm
// (case-insensitive) and whose tags include every active tag. Input order is kept.
func VisibleEntities(all []Entity, searchTerm string, activeTags []string) []Entity {
	term := strings.ToLower(searchTerm)
	out := make([]Entity, 0, len(all))
	for _, e := range all {
		if !strings.Contains(strings.ToLower(e.ID), term) {
			continue
		}
		if !e.Metadata.HasTags(activeTags) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SelectedEntity returns the entity with the given id, if any.
func SelectedEntity(all []Entity, selectedID string) (Entity, bool) {
	if selectedID == "" {
		return Entity{}, false
	}
	for _, e := range all {
		if e.ID == selectedID {
			return e, true
		}
	}
	return Entity{}, false
}
