package entity

import "strconv"

// Handle addresses an entity slot in the scene's arena. The generation guards
// against a stale handle resolving to a slot that has since been reused.
// The zero Handle is never issued.
type Handle struct {
	Index      uint32
	Generation uint32
}

// InvalidHandle is the zero handle, used for "no parent" and failed lookups.
var InvalidHandle = Handle{}

// Valid reports whether h could refer to a live entity.
func (h Handle) Valid() bool {
	return h.Generation != 0
}

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h.Index), 10) + "#" + strconv.FormatUint(uint64(h.Generation), 10)
}

// Resolver maps handles to live entities. The scene's arena implements it.
type Resolver interface {
	// Resolve returns the entity addressed by h.
	//
	// Parameters:
	//   - h: the handle to resolve
	//
	// Returns:
	//   - Entity: the live entity, or nil
	//   - bool: false if h is stale or was never issued
	Resolve(h Handle) (Entity, bool)
}
