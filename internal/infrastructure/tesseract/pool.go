package tesseract

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/cardlens/backend/internal/domain"
)

// Pool is a bounded set of recognition engines with round-robin dispatch.
//
// Construction of the engines is lazy and single-flight: the first Recognize
// call builds all instances, concurrent early callers wait on the same build.
// Dispatch picks a slot by an atomic counter mod pool size; each slot is
// mutex-guarded because an engine instance only supports sequential reuse.
//
// Recognition failures never escape the pool: an engine error or panic is
// absorbed into an empty attempt, which callers treat as a normal
// zero-confidence result.
type Pool struct {
	factory func() (domain.RecognitionEngine, error)
	size    int

	buildOnce sync.Once
	buildErr  error
	slots     []*engineSlot
	built     atomic.Bool

	next atomic.Uint64
}

type engineSlot struct {
	mu     sync.Mutex
	engine domain.RecognitionEngine
}

// NewPool creates a pool of the given size. Engines are not constructed until
// the first Recognize call.
func NewPool(size int, factory func() (domain.RecognitionEngine, error)) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		factory: factory,
		size:    size,
	}
}

// Recognize dispatches the image to the next engine in round-robin order.
// Always returns an attempt; on any internal failure the attempt is empty.
func (p *Pool) Recognize(ctx context.Context, image []byte) (attempt domain.RecognitionAttempt) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[POOL] recovered engine panic: %v", r)
			attempt = domain.RecognitionAttempt{}
		}
	}()

	p.buildOnce.Do(p.build)
	if p.buildErr != nil {
		log.Printf("[POOL] engines unavailable: %v", p.buildErr)
		return domain.RecognitionAttempt{}
	}

	if err := ctx.Err(); err != nil {
		log.Printf("[POOL] dispatch skipped: %v", err)
		return domain.RecognitionAttempt{}
	}

	idx := p.next.Add(1) - 1
	slot := p.slots[idx%uint64(len(p.slots))]

	slot.mu.Lock()
	defer slot.mu.Unlock()

	result, err := slot.engine.Recognize(ctx, image)
	if err != nil {
		log.Printf("[POOL] recognition failed on slot %d: %v", idx%uint64(len(p.slots)), err)
		return domain.RecognitionAttempt{}
	}
	return result
}

// build constructs every engine instance. On partial failure the already
// built engines are closed and the pool stays unusable (every Recognize
// returns an empty attempt).
func (p *Pool) build() {
	slots := make([]*engineSlot, 0, p.size)
	for i := 0; i < p.size; i++ {
		engine, err := p.factory()
		if err != nil {
			for _, s := range slots {
				s.engine.Close()
			}
			p.buildErr = err
			return
		}
		slots = append(slots, &engineSlot{engine: engine})
	}
	p.slots = slots
	p.built.Store(true)
	log.Printf("[POOL] initialized %d recognition engines", p.size)
}

// Shutdown closes every engine. Best-effort: close failures are logged,
// never returned, and the pool must not be used afterwards.
func (p *Pool) Shutdown() {
	if !p.built.Load() {
		return
	}
	for i, slot := range p.slots {
		slot.mu.Lock()
		if err := slot.engine.Close(); err != nil {
			log.Printf("[POOL] failed to close engine %d: %v", i, err)
		}
		slot.mu.Unlock()
	}
	log.Printf("[POOL] shutdown complete")
}
