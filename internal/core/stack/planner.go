package stack

import "sort"

// StopEntry is the pre-fetched view of a registered stack needed to order a batch stop.
type StopEntry struct {
	ID         string
	IsWorktree bool
	BaseID     string
}

// OrderForStop returns stack ids in the order a "stop all" must visit them.
// Every worktree is stopped before its base stack; worktrees whose base is not
// registered come first. Output is deterministic (lexical within each group).
func OrderForStop(entries []StopEntry) []string {
	bases := make(map[string]bool)
	children := make(map[string][]string)
	var orphans []string

	for _, e := range entries {
		if !e.IsWorktree {
			bases[e.ID] = true
		}
	}
	for _, e := range entries {
		if !e.IsWorktree {
			continue
		}
		if bases[e.BaseID] {
			children[e.BaseID] = append(children[e.BaseID], e.ID)
		} else {
			orphans = append(orphans, e.ID)
		}
	}

	baseIDs := make([]string, 0, len(bases))
	for id := range bases {
		baseIDs = append(baseIDs, id)
	}
	sort.Strings(baseIDs)
	sort.Strings(orphans)

	order := make([]string, 0, len(entries))
	order = append(order, orphans...)
	for _, base := range baseIDs {
		kids := children[base]
		sort.Strings(kids)
		order = append(order, kids...)
		order = append(order, base)
	}
	return order
}
