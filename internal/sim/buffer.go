package sim

import (
	"sync"

	"github.com/Yewatermelon/FPSGame/internal/telemetry"
)

const (
	commandQueueOccupancyMetricKey = "sim_command_queue_occupancy"
	commandQueueOverflowMetricKey  = "sim_command_queue_overflow_total"
	commandQueueThrottleMetricKey  = "sim_command_queue_throttled_total"
)

// Queue rejection reasons surfaced to callers of Enqueue.
const (
	RejectQueueFull  = "queue_full"
	RejectQueueLimit = "queue_limit"
)

// CommandBuffer stages commands in a fixed-size ring with per-actor
// throttling. It is safe for concurrent producers and a single consumer.
type CommandBuffer struct {
	mu            sync.Mutex
	data          []Command
	head          int
	tail          int
	count         int
	perActorLimit int
	perActorCount map[string]int
	metrics       telemetry.Metrics
}

// NewCommandBuffer constructs a ring buffer with the provided capacity. A
// perActorLimit of zero disables throttling.
func NewCommandBuffer(capacity, perActorLimit int, metrics telemetry.Metrics) *CommandBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &CommandBuffer{
		data:          make([]Command, capacity),
		perActorLimit: perActorLimit,
		perActorCount: make(map[string]int),
		metrics:       metrics,
	}
}

// Capacity reports the maximum number of commands the buffer can hold.
func (b *CommandBuffer) Capacity() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Len reports the number of staged commands.
func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Push stages a command. On rejection it returns false along with the
// rejection reason.
func (b *CommandBuffer) Push(cmd Command) (bool, string) {
	if b == nil {
		return false, RejectQueueFull
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.perActorLimit > 0 && cmd.ActorID != "" {
		if b.perActorCount[cmd.ActorID] >= b.perActorLimit {
			if b.metrics != nil {
				b.metrics.Add(commandQueueThrottleMetricKey, 1)
			}
			return false, RejectQueueLimit
		}
	}
	if b.count == len(b.data) {
		if b.metrics != nil {
			b.metrics.Add(commandQueueOverflowMetricKey, 1)
		}
		return false, RejectQueueFull
	}
	b.data[b.tail] = cmd
	b.tail = (b.tail + 1) % len(b.data)
	b.count++
	if cmd.ActorID != "" {
		b.perActorCount[cmd.ActorID]++
	}
	b.storeOccupancyLocked()
	return true, ""
}

// Drain returns all staged commands in FIFO order, clears the buffer, and
// resets per-actor throttle counts.
func (b *CommandBuffer) Drain() []Command {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	commands := make([]Command, b.count)
	for i := 0; i < b.count; i++ {
		idx := (b.head + i) % len(b.data)
		commands[i] = b.data[idx]
	}
	b.head = 0
	b.tail = 0
	b.count = 0
	if len(b.perActorCount) > 0 {
		b.perActorCount = make(map[string]int)
	}
	b.storeOccupancyLocked()
	return commands
}

func (b *CommandBuffer) storeOccupancyLocked() {
	if b.metrics == nil {
		return
	}
	b.metrics.Store(commandQueueOccupancyMetricKey, uint64(b.count))
}
