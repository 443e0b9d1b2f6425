package camera

import "sync"

// maxSignatureTextures is the number of texture slots a Signature distinguishes.
const maxSignatureTextures = 4

// Signature identifies the GPU resources an instance draws with. Instances that
// share a Signature can be batched into one draw.
type Signature struct {
	Mesh     uint32
	Textures [maxSignatureTextures]uint32
}

// NewSignature builds a Signature from a mesh ID and up to four texture IDs.
// Extra textures are ignored.
//
// Parameters:
//   - mesh: the mesh identifier
//   - textures: texture identifiers in binding order
//
// Returns:
//   - Signature: the resource signature
func NewSignature(mesh uint32, textures ...uint32) Signature {
	s := Signature{Mesh: mesh}
	copy(s.Textures[:], textures)
	return s
}

// RenderQueue is a per-camera multimap from resource signature to opaque
// per-instance render data. It is filled during culling and reset once consumed.
type RenderQueue struct {
	mu            sync.Mutex
	entries       map[Signature][]any
	count         int
	lastCullCount int
}

// NewRenderQueue creates an empty RenderQueue.
//
// Returns:
//   - *RenderQueue: the new queue
func NewRenderQueue() *RenderQueue {
	return &RenderQueue{entries: make(map[Signature][]any)}
}

// Push appends one instance under sig.
func (q *RenderQueue) Push(sig Signature, payload any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[sig] = append(q.entries[sig], payload)
	q.count++
}

// Len returns the number of queued instances across all signatures.
func (q *RenderQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Get returns the instances queued under sig. The slice is only valid until Reset.
func (q *RenderQueue) Get(sig Signature) []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries[sig]
}

// Each calls fn for every signature with at least one queued instance.
func (q *RenderQueue) Each(fn func(sig Signature, payloads []any)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for sig, payloads := range q.entries {
		if len(payloads) > 0 {
			fn(sig, payloads)
		}
	}
}

// Reset empties the queue, keeping per-signature capacity for the next frame, and
// records the number of instances it held as the last cull count.
//
// Returns:
//   - int: the number of instances that were queued
func (q *RenderQueue) Reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for sig, payloads := range q.entries {
		if len(payloads) == 0 {
			delete(q.entries, sig)
			continue
		}
		clear(payloads)
		q.entries[sig] = payloads[:0]
	}
	q.lastCullCount = q.count
	q.count = 0
	return q.lastCullCount
}

// LastCullCount returns the instance count recorded by the previous Reset.
func (q *RenderQueue) LastCullCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastCullCount
}
