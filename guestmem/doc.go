// Package guestmem provides bounds-checked access to guest linear memory.
//
// The guest cannot marshal structured or variable-length data through the
// purely numeric call interface, so (pointer, length) pairs into its flat
// memory are the lingua franca for buffers and text. Bounds-checking on
// every access is the sandbox's sole memory-safety backstop: the guest can
// construct any integer value by mistake or malice, and a malformed
// offset or length must turn into a reported failure, never an
// out-of-range host memory access.
//
// # Views Are Transient
//
// Guest memory is growable, and growth may relocate the backing storage.
// A view must therefore never outlive the single bridge call that
// acquired it:
//
//	// inside an import handler
//	view := call.Memory()
//	name, err := view.ReadString(ptr, length)
//
// View wraps a wazero memory; RegionView wraps a host-local Region and
// additionally detects stale use mechanically, failing with stale_view if
// the region grew since the view was acquired.
//
// # Writes
//
// Write targets a location the guest itself allocated and communicated.
// The protocol never allocates guest memory on the guest's behalf; the
// guest must expose its own allocation entry point, or the host must
// write into a fixed, pre-agreed scratch region.
//
// # Text
//
// ReadString validates UTF-8 strictly and reports invalid_utf8 on
// malformed bytes. There is no lossy-replacement mode.
package guestmem
