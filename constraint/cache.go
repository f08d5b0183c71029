package constraint

// ConstraintCache is the per pair record correlating contacts across frames.
// Layouts are a constraint handle followed by one feature id per contact, so a
// cache for N contacts is always 4*(1+N) bytes and reports CacheTypeID N-1.
type ConstraintCache interface {
	CacheTypeID() int
	Features() []int32
	ConstraintHandle() ConstraintHandle
	SetConstraintHandle(handle ConstraintHandle)
}

type constraintCachePtr[C any] interface {
	*C
	ConstraintCache
}

type cacheHeader struct {
	Handle ConstraintHandle
}

func (h *cacheHeader) ConstraintHandle() ConstraintHandle {
	return h.Handle
}

func (h *cacheHeader) SetConstraintHandle(handle ConstraintHandle) {
	h.Handle = handle
}

type ConstraintCache1 struct {
	cacheHeader
	FeatureIDs [1]int32
}

type ConstraintCache2 struct {
	cacheHeader
	FeatureIDs [2]int32
}

type ConstraintCache3 struct {
	cacheHeader
	FeatureIDs [3]int32
}

type ConstraintCache4 struct {
	cacheHeader
	FeatureIDs [4]int32
}

type ConstraintCache5 struct {
	cacheHeader
	FeatureIDs [5]int32
}

type ConstraintCache6 struct {
	cacheHeader
	FeatureIDs [6]int32
}

type ConstraintCache7 struct {
	cacheHeader
	FeatureIDs [7]int32
}

type ConstraintCache8 struct {
	cacheHeader
	FeatureIDs [8]int32
}

func (*ConstraintCache1) CacheTypeID() int { return 0 }
func (*ConstraintCache2) CacheTypeID() int { return 1 }
func (*ConstraintCache3) CacheTypeID() int { return 2 }
func (*ConstraintCache4) CacheTypeID() int { return 3 }
func (*ConstraintCache5) CacheTypeID() int { return 4 }
func (*ConstraintCache6) CacheTypeID() int { return 5 }
func (*ConstraintCache7) CacheTypeID() int { return 6 }
func (*ConstraintCache8) CacheTypeID() int { return 7 }

func (c *ConstraintCache1) Features() []int32 { return c.FeatureIDs[:] }
func (c *ConstraintCache2) Features() []int32 { return c.FeatureIDs[:] }
func (c *ConstraintCache3) Features() []int32 { return c.FeatureIDs[:] }
func (c *ConstraintCache4) Features() []int32 { return c.FeatureIDs[:] }
func (c *ConstraintCache5) Features() []int32 { return c.FeatureIDs[:] }
func (c *ConstraintCache6) Features() []int32 { return c.FeatureIDs[:] }
func (c *ConstraintCache7) Features() []int32 { return c.FeatureIDs[:] }
func (c *ConstraintCache8) Features() []int32 { return c.FeatureIDs[:] }
