package domain

import "sort"

// DefaultActivityDepth is the number of tree levels, root included, rendered
// when no depth is configured.
const DefaultActivityDepth = 3

// ActivityNode is the serialized form of an activity subtree. Children is
// always present in JSON, empty at leaves and at the depth cut-off.
type ActivityNode struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Children []ActivityNode `json:"children"`
}

// ActivityForest indexes a flat set of activities by id and by parent.
// It is immutable after construction and safe for concurrent use.
type ActivityForest struct {
	byID     map[int64]Activity
	children map[int64][]int64
	roots    []int64
}

// NewActivityForest builds the index. Children and roots are ordered by id.
func NewActivityForest(activities []Activity) *ActivityForest {
	f := &ActivityForest{
		byID:     make(map[int64]Activity, len(activities)),
		children: make(map[int64][]int64),
	}
	for _, a := range activities {
		f.byID[a.ID] = a
	}
	for _, a := range activities {
		if a.ParentID == nil {
			f.roots = append(f.roots, a.ID)
			continue
		}
		f.children[*a.ParentID] = append(f.children[*a.ParentID], a.ID)
	}
	sortIDs(f.roots)
	for _, ids := range f.children {
		sortIDs(ids)
	}
	return f
}

// Len returns the number of indexed activities.
func (f *ActivityForest) Len() int { return len(f.byID) }

// Has reports whether id is indexed.
func (f *ActivityForest) Has(id int64) bool {
	_, ok := f.byID[id]
	return ok
}

// Get returns the activity with the given id.
func (f *ActivityForest) Get(id int64) (Activity, bool) {
	a, ok := f.byID[id]
	return a, ok
}

// Roots returns the ids of activities without a parent.
func (f *ActivityForest) Roots() []int64 {
	return append([]int64(nil), f.roots...)
}

// IDs returns every indexed id in ascending order.
func (f *ActivityForest) IDs() []int64 {
	ids := make([]int64, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Tree renders the subtree rooted at rootID with at most depth levels,
// counting the root as level one. A depth below one is treated as one.
// ok is false when rootID is not indexed.
func (f *ActivityForest) Tree(rootID int64, depth int) (node ActivityNode, ok bool) {
	root, ok := f.byID[rootID]
	if !ok {
		return ActivityNode{}, false
	}
	if depth < 1 {
		depth = 1
	}

	type frame struct {
		node      *ActivityNode
		remaining int
	}

	node = ActivityNode{ID: root.ID, Name: root.Name}
	stack := []frame{{node: &node, remaining: depth - 1}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kids := f.children[fr.node.ID]
		if fr.remaining == 0 || len(kids) == 0 {
			fr.node.Children = []ActivityNode{}
			continue
		}

		// The slice is sized once, so pointers into it stay valid.
		fr.node.Children = make([]ActivityNode, len(kids))
		for i, id := range kids {
			fr.node.Children[i] = ActivityNode{ID: id, Name: f.byID[id].Name}
			stack = append(stack, frame{node: &fr.node.Children[i], remaining: fr.remaining - 1})
		}
	}
	return node, true
}

// Trees renders every id in ids that is indexed, skipping unknown ids.
func (f *ActivityForest) Trees(ids []int64, depth int) []ActivityNode {
	out := make([]ActivityNode, 0, len(ids))
	for _, id := range ids {
		if n, ok := f.Tree(id, depth); ok {
			out = append(out, n)
		}
	}
	return out
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
