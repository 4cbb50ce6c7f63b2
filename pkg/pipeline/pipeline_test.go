package pipeline

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
	"github.com/blazeiburgess/openwakeword-go/pkg/detector"
	"github.com/blazeiburgess/openwakeword-go/pkg/sink"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// constSession returns a fixed-value output tensor sized to whatever the
// caller asks of it, regardless of input shape.
type constSession struct {
	outLen int
	value  float32
}

func (c *constSession) Infer(input []float32) ([]float32, error) {
	out := make([]float32, c.outLen)
	for i := range out {
		out[i] = c.value
	}
	return out, nil
}
func (c *constSession) InputShape() []int64  { return nil }
func (c *constSession) OutputShape() []int64 { return nil }
func (c *constSession) Close() error         { return nil }

func TestPipelineRunsEndToEndAndStops(t *testing.T) {
	// Enough silence to clear one mel frame, one embedding window, and one
	// detector window, so the classifier runs at least once if the pipeline
	// gets that far before Stop; its constant 0.5 score stays below the 1.0
	// threshold, so no detection fires.
	totalSamples := wakeword.ChunkSamples * 200
	raw := make([]int16, totalSamples)
	src := pcm.NewRawSource(bytes.NewReader(int16sToBytes(raw)))

	var out bytes.Buffer
	textSink := sink.NewTextSink(&out, sink.Plain, false)

	cfg := Config{
		Source:       src,
		MelModel:     &constSession{outLen: wakeword.NumMels, value: 0},
		EmbModel:     &constSession{outLen: wakeword.EmbeddingFeatures, value: 0},
		MelFrameSize: 160,
		Detectors: []DetectorSpec{
			{
				Config:  detector.Config{Name: "hey_test", Threshold: 1.0, TriggerLevel: 1, RefractorySteps: 1},
				Session: &constSession{outLen: 1, value: 0.5},
			},
		},
		Sink:          textSink,
		QueueCapacity: 256,
	}

	p := New(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p.Start(ctx)
	if err := p.WaitUntilReady(ctx); err != nil {
		t.Fatal(err)
	}
	if !p.IsRunning() {
		t.Fatal("pipeline should report running after Start")
	}

	p.Stop()
	if p.IsRunning() {
		t.Fatal("pipeline should report not running after Stop")
	}
}

func TestPipelineDoneClosesOnSourceEOF(t *testing.T) {
	raw := make([]int16, wakeword.ChunkSamples*20)
	src := pcm.NewRawSource(bytes.NewReader(int16sToBytes(raw)))

	cfg := Config{
		Source:       src,
		MelModel:     &constSession{outLen: wakeword.NumMels, value: 0},
		EmbModel:     &constSession{outLen: wakeword.EmbeddingFeatures, value: 0},
		MelFrameSize: 160,
		Detectors: []DetectorSpec{
			{
				Config:  detector.Config{Name: "hey_test", Threshold: 2.0, TriggerLevel: 1, RefractorySteps: 1},
				Session: &constSession{outLen: 1, value: 0},
			},
		},
		Sink:          sink.NewTextSink(&bytes.Buffer{}, sink.Silent, false),
		QueueCapacity: 256,
	}

	p := New(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p.Start(ctx)
	if err := p.WaitUntilReady(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case <-p.Done():
	case <-ctx.Done():
		t.Fatal("pipeline did not finish on its own after source EOF")
	}

	if p.IsRunning() {
		t.Fatal("pipeline should report not running once Done fires")
	}

	// Stop must remain safe to call after a natural EOF shutdown.
	p.Stop()
}

func int16sToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}
