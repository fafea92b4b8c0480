package schema

// topologicalSort orders items so that every item comes after its dependencies, using
// depth-first search with three-color marking. Dependencies outside items and
// self-references are ignored. ok is false when a circular dependency is detected.
func topologicalSort[T any](items []T, dependencies map[string][]string, getID func(T) string) (sorted []T, ok bool) {
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	itemMap := make(map[string]T)

	for _, item := range items {
		itemMap[getID(item)] = item
	}

	var visit func(string) bool
	visit = func(id string) bool {
		if visiting[id] {
			return false
		}
		if visited[id] {
			return true
		}

		visiting[id] = true
		for _, dep := range dependencies[id] {
			if dep == id {
				continue
			}
			if _, exists := itemMap[dep]; exists {
				if !visit(dep) {
					return false
				}
			}
		}
		visiting[id] = false
		visited[id] = true

		sorted = append(sorted, itemMap[id])
		return true
	}

	for _, item := range items {
		id := getID(item)
		if !visited[id] && !visit(id) {
			return nil, false
		}
	}
	return sorted, true
}

// SortTablesByDependencies orders tables so that referenced tables precede the
// tables whose foreign keys point at them. On a cycle the input order is kept.
func SortTablesByDependencies(tables []*Table) []*Table {
	dependencies := map[string][]string{}
	for _, t := range tables {
		key := t.Name.Normalized()
		for _, fk := range t.ForeignKeys() {
			dependencies[key] = append(dependencies[key], fk.ForeignTable.Normalized())
		}
	}

	sorted, ok := topologicalSort(tables, dependencies, func(t *Table) string {
		return t.Name.Normalized()
	})
	if !ok {
		result := make([]*Table, len(tables))
		copy(result, tables)
		return result
	}
	return sorted
}
