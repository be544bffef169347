package watcher

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"
)

// These two structs mirror the kernel's struct fanotify_event_info_header and
// struct fanotify_event_info_fid; golang.org/x/sys/unix doesn't define them
// (unlike the fixed-size FanotifyEventMetadata, which it does), so -- like
// the teacher -- we lay them out ourselves.
type fanotifyEventInfoHeader struct {
	InfoType uint8
	pad      uint8
	Len      uint16
}

type kernelFSID struct {
	val [2]int32
}

type fanotifyEventInfoFID struct {
	Header     fanotifyEventInfoHeader
	fsid       kernelFSID
	fileHandle byte
}

var (
	sizeOfFanotifyEventMetadata   = uint32(unsafe.Sizeof(unix.FanotifyEventMetadata{}))
	sizeOfFanotifyEventInfoHeader = uint32(unsafe.Sizeof(fanotifyEventInfoHeader{}))
	sizeOfKernelFSID              = uint32(unsafe.Sizeof(kernelFSID{}))
)

// recordIter walks a read buffer as a sequence of variable-length fanotify
// records, the way the kernel's FAN_EVENT_OK/FAN_EVENT_NEXT macros do.
type recordIter struct {
	buf []byte
	n   int // bytes remaining from i to the end of the valid read
	i   int // offset of the current record
}

func newRecordIter(buf []byte, n int) *recordIter {
	return &recordIter{buf: buf, n: n}
}

// ok mirrors FAN_EVENT_OK: is there a complete, well-formed record at the
// current offset?
func (r *recordIter) ok() bool {
	if r.n < int(sizeOfFanotifyEventMetadata) {
		return false
	}
	m := r.meta()
	return int(m.Event_len) >= int(sizeOfFanotifyEventMetadata) && int(m.Event_len) <= r.n
}

func (r *recordIter) meta() *unix.FanotifyEventMetadata {
	return (*unix.FanotifyEventMetadata)(unsafe.Pointer(&r.buf[r.i]))
}

// next advances to the next record, mirroring FAN_EVENT_NEXT.
func (r *recordIter) next() {
	adv := int(r.meta().Event_len)
	r.i += adv
	r.n -= adv
}

// fid returns the info block immediately following the fixed metadata.
func (r *recordIter) fid() *fanotifyEventInfoFID {
	return (*fanotifyEventInfoFID)(unsafe.Pointer(&r.buf[r.i+int(r.meta().Metadata_len)]))
}

// dirHandleAndName parses the variable-length directory handle out of the
// FID block, and the null-terminated entry name packed immediately after it.
// The name's offset depends on the handle header plus its variable body, so
// we have to read handle_bytes/handle_type before we know where it starts.
func (r *recordIter) dirHandleAndName() (unix.FileHandle, string) {
	meta := r.meta()

	var handleBytes uint32
	var handleType int32
	j := r.i + int(meta.Metadata_len) + int(sizeOfFanotifyEventInfoHeader) + int(sizeOfKernelFSID)

	binary.Read(bytes.NewReader(r.buf[j:j+4]), binary.LittleEndian, &handleBytes)
	j += 4
	binary.Read(bytes.NewReader(r.buf[j:j+4]), binary.LittleEndian, &handleType)
	j += 4

	handle := unix.NewFileHandle(handleType, r.buf[j:j+int(handleBytes)])
	j += int(handleBytes)

	var name []byte
	for k := j; k < len(r.buf) && r.buf[k] != 0; k++ {
		name = append(name, r.buf[k])
	}
	return handle, string(name)
}
