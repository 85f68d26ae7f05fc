package kernel

import (
	"unsafe"

	"github.com/sigurn/crc8"
)

var queueChecksumTable = crc8.MakeTable(crc8.CRC8)

// QueueChecksum computes a CRC-8 over a message's raw bytes. A producer
// can append it after an item's payload and a consumer can recompute it
// on QueueRecv to catch a torn or corrupted item without a length-
// prefixed framing protocol.
func QueueChecksum(item []byte) uint8 {
	return crc8.Checksum(item, queueChecksumTable)
}

// Queue is a bounded FIFO of fixed-size messages, backed by a
// caller-provided ring buffer. Sends and receives that can't be
// satisfied immediately block on separate wait lists, so a burst of
// waiting senders doesn't starve waiting receivers or vice versa.
type Queue struct {
	buf       []byte
	itemSize  int
	capacity  int
	head, len int

	sendWaiters taskList
	recvWaiters taskList
}

// QueueInit prepares q to hold up to capacity items of itemSize bytes
// each, stored in buf. len(buf) must be at least capacity*itemSize.
func QueueInit(q *Queue, buf []byte, itemSize, capacity int) Status {
	if q == nil || buf == nil || itemSize <= 0 || capacity <= 0 {
		return StatusParam
	}
	if len(buf) < itemSize*capacity {
		return StatusParam
	}
	*q = Queue{buf: buf, itemSize: itemSize, capacity: capacity}
	return StatusOK
}

// QueueSend copies itemSize bytes from item into the queue, blocking if
// it is full.
func QueueSend(q *Queue, item unsafe.Pointer, timeoutMs uint32) Status {
	if q == nil || item == nil {
		return StatusParam
	}
	state := k.enter()
	for q.len == q.capacity {
		if timeoutMs == NoWait {
			k.exit(state)
			return StatusTimeout
		}
		if InISR() {
			k.exit(state)
			return StatusISR
		}
		t := k.blockCurrent(&q.sendWaiters, q, timeoutMs)
		pendSwitchAndBlock(state)
		if !t.finishBlockingCall() {
			return StatusTimeout
		}
		state = k.enter()
	}

	tail := (q.head + q.len) % q.capacity
	dst := q.buf[tail*q.itemSize : (tail+1)*q.itemSize]
	src := unsafe.Slice((*byte)(item), q.itemSize)
	copy(dst, src)
	q.len++

	needSwitch := false
	if !q.recvWaiters.empty() {
		t := q.recvWaiters.head
		k.wake(&q.recvWaiters, t)
		needSwitch = k.wantsSwitch(true)
	}
	k.exit(state)
	if needSwitch {
		port.RequestSwitch()
	}
	return StatusOK
}

// QueueRecv copies the oldest queued item into item, blocking if the
// queue is empty.
func QueueRecv(q *Queue, item unsafe.Pointer, timeoutMs uint32) Status {
	if q == nil || item == nil {
		return StatusParam
	}
	state := k.enter()
	for q.len == 0 {
		if timeoutMs == NoWait {
			k.exit(state)
			return StatusTimeout
		}
		if InISR() {
			k.exit(state)
			return StatusISR
		}
		t := k.blockCurrent(&q.recvWaiters, q, timeoutMs)
		pendSwitchAndBlock(state)
		if !t.finishBlockingCall() {
			return StatusTimeout
		}
		state = k.enter()
	}

	src := q.buf[q.head*q.itemSize : (q.head+1)*q.itemSize]
	dst := unsafe.Slice((*byte)(item), q.itemSize)
	copy(dst, src)
	q.head = (q.head + 1) % q.capacity
	q.len--

	needSwitch := false
	if !q.sendWaiters.empty() {
		t := q.sendWaiters.head
		k.wake(&q.sendWaiters, t)
		needSwitch = k.wantsSwitch(true)
	}
	k.exit(state)
	if needSwitch {
		port.RequestSwitch()
	}
	return StatusOK
}

// QueueCount, QueueIsEmpty and QueueIsFull inspect the queue's current
// occupancy under the critical section, so a caller polling one gets a
// consistent snapshot rather than a torn read of head/len.
func QueueCount(q *Queue) int {
	state := k.enter()
	n := q.len
	k.exit(state)
	return n
}

func QueueIsEmpty(q *Queue) bool { return QueueCount(q) == 0 }
func QueueIsFull(q *Queue) bool {
	state := k.enter()
	full := q.len == q.capacity
	k.exit(state)
	return full
}
