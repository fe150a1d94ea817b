package pinstore

// Ref is a stable handle to a blob written by Append.
//
// A Ref is a small value type: copy it freely, store it in maps and slices,
// send it across goroutines. It stays valid for the lifetime of the store
// that issued it and always resolves to the same memory address; the store
// never moves written data. A Ref from one store is rejected by every other
// store.
type Ref struct {
	store  uint32
	page   uint32
	offset uint32
	length uint64
}

// Page returns the index of the page holding the blob.
func (r Ref) Page() int { return int(r.page) }

// Offset returns the byte offset of the blob within its page.
func (r Ref) Offset() int { return int(r.offset) }

// Len returns the length of the blob in bytes.
func (r Ref) Len() int { return int(r.length) }
