// Package handle provides the foreign handle table that proxies host
// objects to a memory-sandboxed guest.
//
// The guest's linear address space cannot hold a host reference, so every
// cross-boundary object is indirected through a Table: the host stores the
// real reference, the guest holds a small integer. The table is the only
// place ownership crosses the boundary.
//
// # Handle Table
//
// The Table maps integer handles to Go values:
//
//	table := handle.NewTable()
//
//	// Store a value, get a handle
//	h, err := table.Allocate(myObject)
//
//	// Retrieve the value by handle
//	value, err := table.Resolve(h)
//
//	// Release when the guest calls the matching delete function
//	err := table.Release(h)
//
// Handle 0 is reserved and permanently invalid. Released indices return to
// a free pool and are reused by later allocations; a released handle fails
// Resolve until its index is reissued for a different object.
//
// # Type Safety
//
// Handles can carry a type tag so distinct host object kinds cannot be
// confused:
//
//	const TextureTypeID = 1
//	const BufferTypeID = 2
//
//	h, _ := table.AllocateTyped(TextureTypeID, tex)
//
//	value, err := table.ResolveTyped(h, TextureTypeID) // ok
//	value, err = table.ResolveTyped(h, BufferTypeID)   // type_mismatch
//
// # Error Policy
//
// Resolve of a non-live handle reports invalid_handle. Release of an
// already-released handle reports double_release rather than silently
// succeeding; the free pool is never corrupted either way.
//
// # Lifecycle
//
// Host objects are not garbage collected while their handle is live. The
// guest must call the bridge function that releases the handle, or the
// host application must Close the table on teardown, which releases all
// live handles. Objects implementing Destroyer get their Destroy method
// called on release.
//
// Tables must never be shared across guest instances: a handle is only
// meaningful relative to the table that issued it.
package handle
