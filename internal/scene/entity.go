package scene

// Entity is a generational handle. IDs are recycled; Version changes on
// every reuse so stale handles stop resolving. The zero value is "no entity".
type Entity struct {
	ID      uint32
	Version uint32
}

// None is the absent entity.
var None = Entity{}

// IsNone reports whether e is the zero handle.
func (e Entity) IsNone() bool {
	return e.Version == 0
}

type slot struct {
	version uint32 // 0 while the slot is free
	last    uint32 // version to resume from when recycled
}
