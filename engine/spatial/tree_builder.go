package spatial

import "github.com/Carmen-Shannon/oxy-cull/common"

// IndexBuilderOption is a functional option for configuring an Index.
type IndexBuilderOption func(*tree)

// WithCapacity sets how many items a leaf holds before it splits.
//
// Parameters:
//   - capacity: items per leaf, at least 1
//
// Returns:
//   - IndexBuilderOption: a function that sets the leaf capacity
func WithCapacity(capacity int) IndexBuilderOption {
	return func(t *tree) {
		t.capacity = capacity
	}
}

// WithMaxDepth sets the deepest level a split may create. Leaves at this depth
// grow past capacity instead of splitting.
//
// Parameters:
//   - depth: maximum depth, the root being 0
//
// Returns:
//   - IndexBuilderOption: a function that sets the depth limit
func WithMaxDepth(depth int) IndexBuilderOption {
	return func(t *tree) {
		t.maxDepth = depth
	}
}

// WithBounds initializes the index with the given world extent.
//
// Parameters:
//   - bounds: the maximum extent of the world
//
// Returns:
//   - IndexBuilderOption: a function that creates the root node
func WithBounds(bounds common.AABB) IndexBuilderOption {
	return func(t *tree) {
		t.root = &node{box: bounds}
	}
}
