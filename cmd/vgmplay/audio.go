package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ringBuffer is a thread-safe byte ring implementing io.Reader for oto's
// pull model. The playback loop writes samples via write(); oto's player
// reads them on its own goroutine. read blocks when empty; write drops
// the oldest samples on overflow so the producer never stalls.
type ringBuffer struct {
	buf      []byte
	readPos  int
	writePos int
	count    int
	capacity int
	mu       sync.Mutex
	cond     *sync.Cond
	closed   bool
}

func newRingBuffer(capacity int) *ringBuffer {
	rb := &ringBuffer{
		buf:      make([]byte, capacity),
		capacity: capacity,
	}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

func (rb *ringBuffer) write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed || len(p) == 0 {
		return
	}

	n := len(p)
	if n > rb.capacity {
		p = p[n-rb.capacity:]
		n = rb.capacity
	}

	overflow := rb.count + n - rb.capacity
	if overflow > 0 {
		rb.readPos = (rb.readPos + overflow) % rb.capacity
		rb.count -= overflow
	}

	firstChunk := rb.capacity - rb.writePos
	if firstChunk >= n {
		copy(rb.buf[rb.writePos:], p)
	} else {
		copy(rb.buf[rb.writePos:], p[:firstChunk])
		copy(rb.buf[0:], p[firstChunk:])
	}
	rb.writePos = (rb.writePos + n) % rb.capacity
	rb.count += n

	rb.cond.Signal()
}

// Read implements io.Reader. Blocks until data is available or the
// buffer is closed; returns io.EOF when closed and drained.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	n := len(p)
	if n > rb.count {
		n = rb.count
	}

	firstChunk := rb.capacity - rb.readPos
	if firstChunk >= n {
		copy(p, rb.buf[rb.readPos:rb.readPos+n])
	} else {
		copy(p, rb.buf[rb.readPos:])
		copy(p[firstChunk:], rb.buf[:n-firstChunk])
	}
	rb.readPos = (rb.readPos + n) % rb.capacity
	rb.count -= n

	return n, nil
}

func (rb *ringBuffer) buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

func (rb *ringBuffer) close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}

// audioPlayer pushes int16 stereo samples out through oto.
type audioPlayer struct {
	player *oto.Player
	ring   *ringBuffer
	bytes  []byte
}

// ring capacity of ~180ms at 44.1kHz stereo 16-bit.
const ringCapacity = 32768

func newAudioPlayer(sampleRate int, volume float64) (*audioPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}
	<-ready

	ring := newRingBuffer(ringCapacity)
	player := ctx.NewPlayer(ring)
	player.SetVolume(volume)
	player.Play()

	return &audioPlayer{
		player: player,
		ring:   ring,
		bytes:  make([]byte, 0, 4096),
	}, nil
}

// queueSamples converts int16 stereo samples to little-endian bytes and
// hands them to the ring buffer.
func (a *audioPlayer) queueSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}

	needed := len(samples) * 2
	if cap(a.bytes) < needed {
		a.bytes = make([]byte, 0, needed)
	}
	a.bytes = a.bytes[:0]
	for _, sample := range samples {
		a.bytes = append(a.bytes, byte(sample), byte(sample>>8))
	}

	a.ring.write(a.bytes)
}

// bufferLevel returns the bytes of audio currently queued, for pacing.
func (a *audioPlayer) bufferLevel() int {
	return a.ring.buffered() + a.player.BufferedSize()
}

func (a *audioPlayer) drain() {
	for a.bufferLevel() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
}

func (a *audioPlayer) close() {
	a.ring.close()
	a.player.Close()
}
