package tracking

import "sync"

// View holds one operator's search, tag filter and selection.
type View struct {
	mu         sync.Mutex
	searchTerm string
	activeTags []string
	selectedID string
}

// ViewState is a copy of a View's fields.
type ViewState struct {
	SearchTerm string   `json:"search_term"`
	ActiveTags []string `json:"active_tags"`
	SelectedID string   `json:"selected_id,omitempty"`
}

// NewView returns an empty view that shows every entity.
func NewView() *View {
	return &View{}
}

// State returns a copy of the current view settings.
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewState{
		SearchTerm: v.searchTerm,
		ActiveTags: append([]string{}, v.activeTags...),
		SelectedID: v.selectedID,
	}
}

// SetSearchTerm replaces the id search term.
func (v *View) SetSearchTerm(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchTerm = term
}

// SetActiveTags replaces the tag filter.
func (v *View) SetActiveTags(tags []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.activeTags = dedupTags(tags)
}

// ToggleTag adds tag to the filter or removes it if already active.
func (v *View) ToggleTag(tag string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, t := range v.activeTags {
		if t == tag {
			v.activeTags = append(v.activeTags[:i:i], v.activeTags[i+1:]...)
			return
		}
	}
	v.activeTags = append(v.activeTags, tag)
}

// Select marks id as the inspected entity. An empty id clears the selection.
func (v *View) Select(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selectedID = id
}

// Visible applies the view's filters to all.
func (v *View) Visible(all []Entity) []Entity {
	st := v.State()
	return VisibleEntities(all, st.SearchTerm, st.ActiveTags)
}

// Selected resolves the selected id against all.
func (v *View) Selected(all []Entity) (Entity, bool) {
	return SelectedEntity(all, v.State().SelectedID)
}
