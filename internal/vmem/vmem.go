// Package vmem constructs doubly-mapped ("DBF") memory regions: a single
// shared-memory object mapped twice at two contiguous virtual addresses,
// so a caller can address any contiguous window up to the region's size
// as one linear span without ever wrapping around a ring buffer's end.
//
// Grounded on original_source/include/virtual_memory/cler_vmem_posix.hpp.
package vmem

import "fmt"

// DoublyMappedAllocation owns a shared-memory-backed region mapped twice
// back to back. It is not safe for concurrent use during Create/Close;
// the resulting Data/SecondMapping slices follow the same single-writer/
// single-reader discipline as the channel that owns them.
type DoublyMappedAllocation struct {
	first  []byte
	second []byte
	size   int
	valid  bool

	closer func() error
}

// Create allocates and doubly-maps a region of at least size bytes,
// rounded up to the page size. It returns a zero-value, invalid
// allocation (Valid() == false) rather than an error when the platform
// or a particular attempt does not support doubly-mapped regions --
// callers are expected to fall back to a plain linear buffer in that
// case, per spec.md §4.3's storage-selection rule.
func Create(size int) (*DoublyMappedAllocation, error) {
	if size <= 0 {
		return nil, fmt.Errorf("vmem: size must be positive, got %d", size)
	}
	return create(size)
}

// Data returns the first alias of the mapped region, size bytes long.
func (d *DoublyMappedAllocation) Data() []byte { return d.first }

// SecondMapping returns the second alias, immediately following the
// first in virtual address space: second[i] and first[i] observe the
// same physical byte.
func (d *DoublyMappedAllocation) SecondMapping() []byte { return d.second }

// Size reports the size in bytes of a single alias.
func (d *DoublyMappedAllocation) Size() int { return d.size }

// Valid reports whether the allocation succeeded and is usable.
func (d *DoublyMappedAllocation) Valid() bool { return d.valid }

// Close tears down both mappings and releases the backing object. Safe
// to call on an invalid allocation.
func (d *DoublyMappedAllocation) Close() error {
	if d == nil || d.closer == nil {
		return nil
	}
	err := d.closer()
	d.closer = nil
	d.valid = false
	return err
}

func invalid() *DoublyMappedAllocation {
	return &DoublyMappedAllocation{}
}
