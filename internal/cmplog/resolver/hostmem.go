package resolver

import "unsafe"

// ReadableFunc answers whether [addr, addr+length) in the host address
// space can be dereferenced without faulting. The instrumentation engine
// owns the page-map knowledge to answer this; the resolver only consumes
// the verdict.
type ReadableFunc func(addr uint64, length int) bool

// HostMemory is a Memory implementation over the probe's own address
// space, for engines that execute the target in-process (the frida-style
// deployment). Reads go straight through unsafe pointers; the injected
// oracle is the only thing standing between a probe and a fault, which is
// exactly the contract Memory documents.
type HostMemory struct {
	readable ReadableFunc
}

// NewHostMemory returns host-address-space memory guarded by the given
// oracle. A nil oracle would make every Read a potential fault, so it is
// rejected outright.
func NewHostMemory(readable ReadableFunc) *HostMemory {
	if readable == nil {
		panic("cmplog: HostMemory requires a readability oracle")
	}
	return &HostMemory{readable: readable}
}

// Readable consults the injected oracle.
//
//go:nosplit
func (h *HostMemory) Readable(addr uint64, length int) bool {
	return h.readable(addr, length)
}

// Read copies raw bytes out of the host address space.
//
// Only valid for ranges Readable approved; per the Memory contract there
// is no failure path here.
//
//go:nosplit
func (h *HostMemory) Read(addr uint64, buf []byte) {
	//nolint:gosec // G103: raw target-memory access is this type's entire purpose.
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), len(buf))
	copy(buf, src)
}
