// Command demo runs the scheduler against the host simulation port with
// a small mixed workload: a fast high-priority task, a medium-priority
// task that takes and releases a priority-inheritance mutex, a
// low-priority background consumer reading off a message queue, and a
// heartbeat software timer — enough concurrent activity to exercise
// preemption and timer/queue interaction together. Only the
// medium-priority task locks the mutex, so it is never contended and no
// priority boost occurs.
package main

import (
	"time"
	"unsafe"

	"github.com/tomorares/mrtos/kernel"
	"github.com/tomorares/mrtos/kernel/trust"
	"github.com/tomorares/mrtos/port/simport"
)

const (
	tickRateHz = 1000
	stackWords = 256
	queueDepth = 8
)

// queueMsg is the fixed-size item task1Fn feeds task3Fn: a tick stamp
// plus a CRC-8 over that stamp's bytes, so the consumer has something
// concrete to verify on the way out of the ring buffer.
type queueMsg struct {
	Tick uint32
	Sum  uint8
	_    [3]byte
}

const queueMsgSize = 8

var (
	task1Stack, task2Stack, task3Stack, idleStack [stackWords]uint32
	task1TCB, task2TCB, task3TCB                  kernel.Task

	sharedMutex kernel.Mutex
	msgQueue    kernel.Queue
	queueBuf    [queueDepth * queueMsgSize]byte
	heartbeat   kernel.Timer

	task1Count, task2Count, task3Count uint32
)

func tickBytes(tick uint32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&tick)), 4)
}

func heartbeatCallback(arg unsafe.Pointer) {
	trust.Debugf("heartbeat")
}

// task1Fn is the fast, high-priority producer: every 5ms it stamps the
// current tick into the queue for task3Fn to drain.
func task1Fn(arg unsafe.Pointer) {
	trust.Infof("[T1] started (prio=1)")
	lastWake := kernel.Now()
	for {
		task1Count++
		tick := kernel.Now()
		msg := queueMsg{Tick: tick, Sum: kernel.QueueChecksum(tickBytes(tick))}
		kernel.QueueSend(&msgQueue, unsafe.Pointer(&msg), kernel.NoWait)

		if task1Count%200 == 0 {
			trust.Infof("[T1] tick=%d runs=%d", tick, task1Count)
		}

		lastWake += 5
		kernel.DelayUntil(lastWake)
	}
}

// task2Fn is the medium-priority task: every 20ms it takes and releases
// the shared mutex. No other demo task locks it.
func task2Fn(arg unsafe.Pointer) {
	trust.Infof("[T2] started (prio=2)")
	lastWake := kernel.Now()
	for {
		task2Count++
		kernel.MutexLock(&sharedMutex, kernel.WaitForever)
		tick := kernel.Now()
		if task2Count%50 == 0 {
			trust.Infof("[T2] tick=%d runs=%d", tick, task2Count)
		}
		kernel.MutexUnlock(&sharedMutex)

		lastWake += 20
		kernel.DelayUntil(lastWake)
	}
}

// task3Fn is the low-priority background consumer: it drains the queue
// task1Fn feeds and reports scheduler statistics once a second.
func task3Fn(arg unsafe.Pointer) {
	trust.Infof("[T3] started (prio=3)")
	var lastReport uint32
	for {
		task3Count++
		var msg queueMsg
		if kernel.QueueRecv(&msgQueue, unsafe.Pointer(&msg), 100) == kernel.StatusOK {
			if kernel.QueueChecksum(tickBytes(msg.Tick)) != msg.Sum {
				trust.Warnf("[T3] checksum mismatch on tick=%d", msg.Tick)
			}
		}

		now := kernel.Now()
		if now-lastReport >= 1000 {
			lastReport = now
			kernel.EmitStatsFrame()
		}
	}
}

func main() {
	trust.SetLevel(trust.Info | trust.Warn | trust.Error | trust.Stats)

	port := simport.New()
	kernel.BindPort(port)

	status := kernel.Init(kernel.Config{
		MaxPriorities:    8,
		TickRateHz:       tickRateHz,
		IdleStack:        idleStack[:],
		EnableStats:      true,
		EnableStackCheck: true,
	})
	if status != kernel.StatusOK {
		trust.Fatalf("kernel.Init failed: %v", status)
	}

	kernel.MutexInit(&sharedMutex)
	kernel.QueueInit(&msgQueue, queueBuf[:], queueMsgSize, queueDepth)
	kernel.TimerInit(&heartbeat, "heartbeat", heartbeatCallback, nil)
	kernel.TimerStart(&heartbeat, 500)

	trust.Infof("[TASK] creating T1 (prio=1, period=5ms)")
	kernel.CreateTask(&task1TCB, "T1", 1, task1Stack[:], task1Fn, nil)
	trust.Infof("[TASK] creating T2 (prio=2, period=20ms)")
	kernel.CreateTask(&task2TCB, "T2", 2, task2Stack[:], task2Fn, nil)
	trust.Infof("[TASK] creating T3 (prio=3, background)")
	kernel.CreateTask(&task3TCB, "T3", 3, task3Stack[:], task3Fn, nil)

	go func() {
		tick := time.NewTicker(time.Second / tickRateHz)
		defer tick.Stop()
		for range tick.C {
			port.RunTick()
		}
	}()

	trust.Infof("[SCHED] starting scheduler")
	kernel.Start()
}
