package core

import "pkt.systems/tabula/schema"

type tab struct {
	surface  Surface
	title    string
	url      string
	isNewTab bool
}

func newTab(surface Surface) *tab {
	return &tab{surface: surface, title: schema.DefaultTabTitle}
}

// Snapshot returns the display view of the tab at index.
func (t *tab) Snapshot(index int, active bool) schema.TabSnapshot {
	title := t.title
	if title == "" && t.isNewTab {
		title = schema.DefaultTabTitle
	}
	return schema.TabSnapshot{
		Index:    index,
		Title:    title,
		URL:      t.url,
		IsActive: active,
	}
}

// observe records the surface URL after a navigation event.
func (t *tab) observe(url string) {
	t.url = url
	t.isNewTab = schema.IsPlaceholderURL(url)
}
