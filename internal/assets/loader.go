package assets

import (
	"context"
	"image"
	"io"
	"sync"

	"skirmish/internal/graphics"
	"skirmish/internal/logger"

	"go.uber.org/zap"
)

// TextureJob asks the loader to decode one texture.
type TextureJob struct {
	Name string
	// Open returns the encoded image. When nil, Path is opened instead.
	Open func() (io.ReadCloser, error)
	Path string
}

type decoded struct {
	name string
	img  *image.RGBA
	err  error
}

// TextureLoader decodes textures on worker goroutines. Decoded images are
// handed to the render thread through Drain, which is the only place GPU
// textures are created.
type TextureLoader struct {
	cache   *Cache
	jobs    chan TextureJob
	results chan decoded
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	maxSize int

	mu      sync.Mutex
	pending int
}

// NewTextureLoader starts workers decoding into cache.
func NewTextureLoader(cache *Cache, workers, queueSize int) *TextureLoader {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &TextureLoader{
		cache:   cache,
		jobs:    make(chan TextureJob, queueSize),
		results: make(chan decoded, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		maxSize: MaxTextureSize,
	}
	for range workers {
		l.wg.Add(1)
		go l.worker()
	}
	return l
}

// Submit queues a job. It returns false if the queue is full or the
// loader has shut down.
func (l *TextureLoader) Submit(job TextureJob) bool {
	if l.ctx.Err() != nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case l.jobs <- job:
		l.pending++
		return true
	default:
		return false
	}
}

// Pending returns the number of submitted jobs not yet drained.
func (l *TextureLoader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

func (l *TextureLoader) worker() {
	defer l.wg.Done()
	for {
		select {
		case job := <-l.jobs:
			res := decoded{name: job.Name}
			res.img, res.err = l.decode(job)
			select {
			case l.results <- res:
			case <-l.ctx.Done():
				return
			}
		case <-l.ctx.Done():
			return
		}
	}
}

func (l *TextureLoader) decode(job TextureJob) (*image.RGBA, error) {
	if job.Open == nil {
		return LoadTextureFile(job.Path, l.maxSize)
	}
	rc, err := job.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return DecodeTexture(rc, l.maxSize)
}

// Drain uploads at most budget decoded textures (budget <= 0 means all
// ready ones) and returns how many were uploaded. It never blocks and must
// run on the render thread before the frame issues draw calls.
func (l *TextureLoader) Drain(dev graphics.Device, budget int) int {
	n := 0
	for budget <= 0 || n < budget {
		var res decoded
		select {
		case res = <-l.results:
		default:
			return n
		}

		l.mu.Lock()
		l.pending--
		l.mu.Unlock()

		if res.err != nil {
			logger.Log.Warn("texture decode failed", zap.String("name", res.name), zap.Error(res.err))
			continue
		}
		size := res.img.Rect.Size()
		tex, err := dev.CreateTexture(int32(size.X), int32(size.Y), graphics.FormatRGBA8, res.img.Pix)
		if err != nil {
			logger.Log.Warn("texture upload failed", zap.String("name", res.name), zap.Error(err))
			continue
		}
		if old := l.cache.setTexture(res.name, tex); old.ID != 0 {
			dev.DeleteTexture(old)
		}
		n++
	}
	return n
}

// Shutdown stops the workers. Undrained results are dropped.
func (l *TextureLoader) Shutdown() {
	l.cancel()
	l.wg.Wait()
}
