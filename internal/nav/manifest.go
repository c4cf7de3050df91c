package nav

// ManifestEntry is one node of the navigation manifest (nav.json).
type ManifestEntry struct {
	Title    string          `json:"title"`
	Path     string          `json:"path,omitempty"`
	Section  string          `json:"section,omitempty"`
	Index    string          `json:"index,omitempty"`
	Children []ManifestEntry `json:"children,omitempty"`
}

// Manifest describes the nav tree below n with resolved page paths.
func (n *Nav) Manifest() (ManifestEntry, error) {
	entry := ManifestEntry{Title: n.Title(), Path: n.Dir(), Section: n.section}
	if idx := n.Index(); idx != nil {
		p, err := idx.ResolvedPath()
		if err != nil {
			return ManifestEntry{}, err
		}
		entry.Index = p
	}
	for _, e := range n.Entries() {
		switch v := e.Node.(type) {
		case *Page:
			p, err := v.ResolvedPath()
			if err != nil {
				return ManifestEntry{}, err
			}
			entry.Children = append(entry.Children, ManifestEntry{Title: v.Title(), Path: p})
		case *Nav:
			sub, err := v.Manifest()
			if err != nil {
				return ManifestEntry{}, err
			}
			entry.Children = append(entry.Children, sub)
		}
	}
	return entry, nil
}
