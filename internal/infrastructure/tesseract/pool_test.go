package tesseract

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/backend/internal/domain"
)

// fakeEngine is a scriptable stand-in for a Tesseract instance
type fakeEngine struct {
	id       int
	calls    atomic.Int64
	closed   atomic.Bool
	closeErr error
	err      error
	panics   bool
}

func (f *fakeEngine) Recognize(ctx context.Context, image []byte) (domain.RecognitionAttempt, error) {
	f.calls.Add(1)
	if f.panics {
		panic("engine blew up")
	}
	if f.err != nil {
		return domain.RecognitionAttempt{}, f.err
	}
	return domain.RecognitionAttempt{
		Transcript: "hello",
		Tokens:     []domain.RecognitionToken{{Text: "hello", ConfidenceRaw: 90}},
	}, nil
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return f.closeErr
}

func TestPool_LazySingleFlightInit(t *testing.T) {
	var builds atomic.Int64
	pool := NewPool(2, func() (domain.RecognitionEngine, error) {
		builds.Add(1)
		return &fakeEngine{}, nil
	})

	// Nothing built before first use
	assert.Equal(t, int64(0), builds.Load())

	// Hammer the pool from many goroutines; engines must be built exactly once
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Recognize(context.Background(), []byte("img"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), builds.Load(), "pool size 2 means exactly 2 engine builds")
}

func TestPool_RoundRobinDispatch(t *testing.T) {
	engines := []*fakeEngine{{id: 0}, {id: 1}}
	var i atomic.Int64
	pool := NewPool(2, func() (domain.RecognitionEngine, error) {
		return engines[i.Add(1)-1], nil
	})

	for n := 0; n < 6; n++ {
		pool.Recognize(context.Background(), []byte("img"))
	}

	assert.Equal(t, int64(3), engines[0].calls.Load())
	assert.Equal(t, int64(3), engines[1].calls.Load())
}

func TestPool_AbsorbsEngineErrors(t *testing.T) {
	pool := NewPool(1, func() (domain.RecognitionEngine, error) {
		return &fakeEngine{err: errors.New("tesseract choked")}, nil
	})

	attempt := pool.Recognize(context.Background(), []byte("img"))

	assert.Empty(t, attempt.Transcript)
	assert.Empty(t, attempt.Tokens)
}

func TestPool_AbsorbsEnginePanics(t *testing.T) {
	pool := NewPool(1, func() (domain.RecognitionEngine, error) {
		return &fakeEngine{panics: true}, nil
	})

	attempt := pool.Recognize(context.Background(), []byte("img"))

	assert.Empty(t, attempt.Transcript)
	assert.Empty(t, attempt.Tokens)
}

func TestPool_AbsorbsFactoryFailure(t *testing.T) {
	built := &fakeEngine{}
	var i atomic.Int64
	pool := NewPool(2, func() (domain.RecognitionEngine, error) {
		if i.Add(1) == 1 {
			return built, nil
		}
		return nil, errors.New("no traineddata")
	})

	attempt := pool.Recognize(context.Background(), []byte("img"))

	assert.Empty(t, attempt.Transcript)
	// The engine that did come up must be released again
	assert.True(t, built.closed.Load())
}

func TestPool_CancelledContextYieldsEmptyAttempt(t *testing.T) {
	pool := NewPool(1, func() (domain.RecognitionEngine, error) {
		return &fakeEngine{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempt := pool.Recognize(ctx, []byte("img"))
	assert.Empty(t, attempt.Transcript)
}

func TestPool_ShutdownClosesEverything(t *testing.T) {
	engines := []*fakeEngine{{closeErr: errors.New("already gone")}, {}}
	var i atomic.Int64
	pool := NewPool(2, func() (domain.RecognitionEngine, error) {
		return engines[i.Add(1)-1], nil
	})

	pool.Recognize(context.Background(), []byte("img"))

	// Close errors are swallowed; both engines still get asked to terminate
	pool.Shutdown()
	assert.True(t, engines[0].closed.Load())
	assert.True(t, engines[1].closed.Load())
}

func TestPool_ShutdownBeforeInitIsNoop(t *testing.T) {
	var builds atomic.Int64
	pool := NewPool(2, func() (domain.RecognitionEngine, error) {
		builds.Add(1)
		return &fakeEngine{}, nil
	})

	pool.Shutdown()
	require.Equal(t, int64(0), builds.Load(), "shutdown must not trigger lazy init")
}

func TestPool_SuccessfulRecognition(t *testing.T) {
	pool := NewPool(1, func() (domain.RecognitionEngine, error) {
		return &fakeEngine{}, nil
	})

	attempt := pool.Recognize(context.Background(), []byte("img"))

	require.Equal(t, "hello", attempt.Transcript)
	require.Len(t, attempt.Tokens, 1)
	assert.Equal(t, 90.0, attempt.Tokens[0].ConfidenceRaw)
}
