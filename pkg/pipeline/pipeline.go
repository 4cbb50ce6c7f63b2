// Package pipeline wires the audio ingest, mel, embedding, and detector
// stages together into a running system and manages its lifecycle.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
	"github.com/blazeiburgess/openwakeword-go/pkg/buffer"
	"github.com/blazeiburgess/openwakeword-go/pkg/detector"
	"github.com/blazeiburgess/openwakeword-go/pkg/embedding"
	"github.com/blazeiburgess/openwakeword-go/pkg/mel"
	"github.com/blazeiburgess/openwakeword-go/pkg/model"
	"github.com/blazeiburgess/openwakeword-go/pkg/noise"
	"github.com/blazeiburgess/openwakeword-go/pkg/sink"
	"github.com/blazeiburgess/openwakeword-go/pkg/vad"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// DetectorSpec describes one wake-word detector to wire into the pipeline.
type DetectorSpec struct {
	Config  detector.Config
	Session model.Session
}

// Config holds everything needed to build a Pipeline.
type Config struct {
	Source    pcm.Source
	MelModel  model.Session
	EmbModel  model.Session
	Detectors []DetectorSpec

	Sink sink.Sink

	// MelFrameSize is the number of samples the mel model consumes per
	// inference.
	MelFrameSize int

	// VADScorer is optional; when set, every ingested AudioFrame is scored
	// but never gated, per the advisory-only VAD contract.
	VADScorer vad.Scorer

	// NoiseSuppressor is optional and runs ahead of the mel stage when
	// enabled via --enable-noise-suppression.
	NoiseSuppressor *noise.Suppressor

	// QueueCapacity sizes every inter-stage BoundedQueue.
	QueueCapacity int

	Debug bool
}

// Pipeline supervises the full stage chain: Source -> ingest -> mel ->
// embedding -> N detectors -> Sink.
type Pipeline struct {
	cfg Config

	audioQueue *buffer.BoundedQueue[wakeword.AudioFrame]
	melQueue   *buffer.BoundedQueue[wakeword.MelSlice]
	embQueues  []*buffer.BoundedQueue[wakeword.Embedding]

	readyMu    sync.Mutex
	readyCond  *sync.Cond
	readyCount int
	wantReady  int

	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	doneCh   chan struct{}
	doneOnce sync.Once

	lastVADScore float32
}

// New builds a Pipeline from cfg but does not start it.
func New(cfg Config) *Pipeline {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 64
	}

	p := &Pipeline{cfg: cfg}
	p.doneCh = make(chan struct{})
	p.readyCond = sync.NewCond(&p.readyMu)
	// ready signals: ingest + mel + embedding + one per detector
	p.wantReady = 3 + len(cfg.Detectors)

	p.audioQueue = buffer.NewBoundedQueue[wakeword.AudioFrame](cfg.QueueCapacity)
	p.melQueue = buffer.NewBoundedQueue[wakeword.MelSlice](cfg.QueueCapacity)
	p.embQueues = make([]*buffer.BoundedQueue[wakeword.Embedding], len(cfg.Detectors))
	for i := range p.embQueues {
		p.embQueues[i] = buffer.NewBoundedQueue[wakeword.Embedding](cfg.QueueCapacity)
	}
	return p
}

func (p *Pipeline) incrementReady() {
	p.readyMu.Lock()
	p.readyCount++
	p.readyCond.Broadcast()
	p.readyMu.Unlock()
}

// WaitUntilReady blocks until every stage has started, or ctx is canceled.
func (p *Pipeline) WaitUntilReady(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.readyMu.Lock()
		for p.readyCount < p.wantReady {
			p.readyCond.Wait()
		}
		p.readyMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether Start has been called without a matching Stop.
func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start launches every stage's goroutine. ctx cancellation (typically tied
// to SIGINT/SIGTERM) ends the ingest loop, after which the remaining stages
// drain and exit in order; the sink is closed only by Stop. This replaces
// the original's global-pipeline-pointer signal handler with idiomatic Go
// context propagation.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	melOut := p.melQueue
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.incrementReady()
		stage := mel.New(p.cfg.MelModel, p.cfg.MelFrameSize)
		stage.Run(p.audioQueue, melOut)
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.incrementReady()
		stage := embedding.New(p.cfg.EmbModel)
		stage.Run(p.melQueue, p.embQueues)
	}()

	for i, spec := range p.cfg.Detectors {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.incrementReady()
			stage := detector.New(spec.Config, spec.Session)
			preds := buffer.NewBoundedQueue[wakeword.Prediction](p.cfg.QueueCapacity)
			dets := buffer.NewBoundedQueue[wakeword.Detection](p.cfg.QueueCapacity)

			var consumeWg sync.WaitGroup
			consumeWg.Add(1)
			go func() {
				defer consumeWg.Done()
				for {
					items := dets.Pull(0)
					if items == nil {
						return
					}
					for _, d := range items {
						if p.cfg.Sink != nil {
							p.cfg.Sink.Write(d)
						}
					}
				}
			}()
			consumeWg.Add(1)
			go func() {
				defer consumeWg.Done()
				for {
					items := preds.Pull(0)
					if items == nil {
						return
					}
					if !p.cfg.Debug {
						continue
					}
					for _, pred := range items {
						fmt.Fprintf(os.Stderr, "%s %v\n", pred.DetectorName, pred.Score)
					}
				}
			}()

			stage.Run(p.embQueues[i], preds, dets)
			consumeWg.Wait()
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.incrementReady()
		p.runIngest(ctx)
	}()

	go p.awaitCompletion()
}

// awaitCompletion waits for every stage goroutine to finish — whether
// because the source hit EOF, Stop was called, or ctx was canceled — and
// marks the pipeline no longer running, then closes the channel returned by
// Done. This lets a caller's main loop select on Done to notice a clean EOF
// shutdown that no signal triggered.
func (p *Pipeline) awaitCompletion() {
	p.wg.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.doneOnce.Do(func() { close(p.doneCh) })
}

// Done returns a channel that closes once every stage has stopped, whether
// from source EOF, an explicit Stop, or context cancellation.
func (p *Pipeline) Done() <-chan struct{} {
	return p.doneCh
}

// ingestFrameSize is the fixed chunk size read from Source per iteration,
// matching wakeword.ChunkSamples.
const ingestFrameSize = wakeword.ChunkSamples

// runIngest reads raw samples from Source, converts them to float32,
// optionally suppresses noise and scores VAD, and pushes AudioFrames
// downstream until the source is exhausted, ctx is canceled, or Stop is
// called. A trailing partial chunk shorter than ingestFrameSize is
// zero-padded before being pushed, so downstream emission counts always
// divide evenly by frame size; the original C++ main loop simply stopped
// reading on a partial fread without padding.
func (p *Pipeline) runIngest(ctx context.Context) {
	defer p.audioQueue.SetExhausted()

	raw := make([]int16, ingestFrameSize)
	var seq uint64

	for {
		if ctx.Err() != nil || !p.IsRunning() {
			return
		}

		n, err := p.cfg.Source.ReadSamples(raw)
		// A short read with a nil error is not EOF: keep reading until the
		// chunk is full, so only a trailing partial chunk gets padded.
		for err == nil && n > 0 && n < ingestFrameSize && ctx.Err() == nil {
			var m int
			m, err = p.cfg.Source.ReadSamples(raw[n:])
			n += m
		}
		if n > 0 {
			chunk := raw[:n]
			if n < ingestFrameSize {
				padded := make([]int16, ingestFrameSize)
				copy(padded, chunk)
				chunk = padded
			}

			frame := wakeword.AudioFrame{Samples: make([]float32, len(chunk)), Seq: seq}
			pcm.Int16ToFloat32(frame.Samples, chunk)
			seq++

			if p.cfg.NoiseSuppressor != nil {
				p.cfg.NoiseSuppressor.Process(frame.Samples)
			}
			if p.cfg.VADScorer != nil {
				if score, vErr := p.cfg.VADScorer.Score(frame.Samples); vErr == nil {
					p.mu.Lock()
					p.lastVADScore = score
					p.mu.Unlock()
				}
			}

			if !p.audioQueue.Push([]wakeword.AudioFrame{frame}) {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// LastVADScore returns the most recently computed advisory VAD score, or 0
// if no VADScorer was configured.
func (p *Pipeline) LastVADScore() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastVADScore
}

// Stop signals every stage to wind down and blocks until they have. It is
// safe to call more than once.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.audioQueue.SetExhausted()
	p.wg.Wait()

	if p.cfg.Sink != nil {
		p.cfg.Sink.Close()
	}
}
