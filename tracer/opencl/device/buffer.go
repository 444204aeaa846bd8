package device

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"
	"github.com/achilleasa/spheretrace/tracer"
)

type Buffer struct {
	// Handle to opencl buffer.
	bufHandle cl.Mem

	// Associated Device.
	device *Device

	// A name for identifying the buffer.
	name string

	// Allocated size.
	size int
}

// Get buffer size.
func (b *Buffer) Size() int {
	return b.size
}

// Allocate a buffer with the given size and flags.
func (b *Buffer) Allocate(size int, flags cl.MemFlags) error {
	return b.allocate(size, flags)
}

// Allocate a buffer with enough capacity to fit the given data.
func (b *Buffer) AllocateToFitData(data interface{}, flags cl.MemFlags) error {
	_, dataLen := getSliceData(data)
	return b.allocate(dataLen, flags)
}

// Allocate a buffer that fits data and copy data to it. The buffer is
// released if the copy fails.
func (b *Buffer) AllocateAndWriteData(data interface{}, flags cl.MemFlags) error {
	if err := b.AllocateToFitData(data, flags); err != nil {
		return err
	}
	if err := b.WriteData(data, 0); err != nil {
		b.Release()
		return err
	}
	return nil
}

func (b *Buffer) allocate(size int, flags cl.MemFlags) error {
	var errCode cl.ErrorCode

	// If the buffer is alreay allocated release it
	b.Release()

	b.bufHandle = cl.CreateBuffer(
		*b.device.ctx,
		flags,
		cl.MemFlags(size),
		nil,
		(*int32)(&errCode),
	)

	if errCode != cl.SUCCESS {
		b.bufHandle = nil
		if isAllocationError(errCode) {
			return fmt.Errorf("opencl device (%s): could not allocate buffer %s of size %d: %w (error: %s; code %d)", b.device.Name, b.name, size, tracer.ErrResourceExhausted, ErrorName(errCode), errCode)
		}
		return fmt.Errorf("opencl device (%s): could not allocate buffer %s of size %d (error: %s; code %d)", b.device.Name, b.name, size, ErrorName(errCode), errCode)
	}

	b.size = size

	return nil
}

// Write data to the device buffer. The behavior of this method is undefined
// if a non-slice argument is passed or the argument does not use contiguous
// memory. A byte offset may also be specified to adjust the actual data copied.
func (b *Buffer) WriteData(data interface{}, offset int) error {

	dataPtr, dataLen := getSliceData(data)

	if dataLen > b.size {
		return fmt.Errorf("opencl device (%s): insufficient buffer space (%d) in %s for copying data of length %d", b.device.Name, b.size, b.name, dataLen)
	}

	errCode := cl.EnqueueWriteBuffer(
		b.device.cmdQueue,
		b.bufHandle,
		cl.TRUE,
		uint64(offset),
		uint64(dataLen-offset),
		dataPtr,
		0,
		nil,
		nil,
	)

	if errCode != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): error copying host data to device buffer %s (error: %s; code %d)", b.device.Name, b.name, ErrorName(errCode), errCode)
	}

	return nil
}

// Read data from device buffer into the supplied host buffer. The behavior of
// this method is undefined if a non-slice argument is passed or if the argument
// does not use contiguous memory.
//
// If size is <= 0 then ReadData will read the entire bufer. Both src and dst
// offsets are specified in bytes.
func (b *Buffer) ReadData(srcOffset, dstOffset, size int, hostBuffer interface{}) error {
	if size <= 0 {
		size = b.size
	}

	dataPtr, _ := getSliceData(hostBuffer)

	errCode := cl.EnqueueReadBuffer(
		b.device.cmdQueue,
		b.bufHandle,
		cl.TRUE,
		uint64(srcOffset),
		uint64(size),
		unsafe.Pointer(uintptr(dataPtr)+uintptr(dstOffset)),
		0,
		nil,
		nil,
	)

	if errCode != cl.SUCCESS {
		return fmt.Errorf("opencl device (%s): error copying device data from %s to host buffer (error: %s; code %d)", b.device.Name, b.name, ErrorName(errCode), errCode)
	}

	return nil
}

// Release buffer.
func (b *Buffer) Release() {
	if b.bufHandle != nil {
		cl.ReleaseMemObject(b.bufHandle)
		b.bufHandle = nil
		b.size = 0
	}
}

// Get opencl buffer handle.
func (b *Buffer) Handle() cl.Mem {
	return b.bufHandle
}

// Given an interface{} containing a slice return a pointer to its data and its length.
func getSliceData(data interface{}) (unsafe.Pointer, int) {
	reflVal := reflect.ValueOf(data)

	if reflVal.Kind() != reflect.Slice {
		panic("getSliceData: this function only supports slices")
	}

	sliceElemCount := reflVal.Len()
	if sliceElemCount == 0 {
		panic("getSliceData: supplied slice object is empty")
	}

	return unsafe.Pointer(reflVal.Index(0).Addr().Pointer()),
		sliceElemCount * int(reflect.TypeOf(data).Elem().Size())
}

// Returns true if errCode indicates that the device ran out of memory.
func isAllocationError(errCode cl.ErrorCode) bool {
	switch errCode {
	case -4, -5, -6, -61:
		// MEM_OBJECT_ALLOCATION_FAILURE, OUT_OF_RESOURCES,
		// OUT_OF_HOST_MEMORY, INVALID_BUFFER_SIZE
		return true
	}
	return false
}
