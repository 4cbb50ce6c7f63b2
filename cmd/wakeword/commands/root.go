// Package commands implements the wakeword CLI's single root command.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blazeiburgess/openwakeword-go/pkg/config"
	"github.com/blazeiburgess/openwakeword-go/pkg/detector"
	"github.com/blazeiburgess/openwakeword-go/pkg/model"
	"github.com/blazeiburgess/openwakeword-go/pkg/noise"
	"github.com/blazeiburgess/openwakeword-go/pkg/pcmsource"
	"github.com/blazeiburgess/openwakeword-go/pkg/pipeline"
	"github.com/blazeiburgess/openwakeword-go/pkg/sink"
	"github.com/blazeiburgess/openwakeword-go/pkg/vad"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// version is set at release time via -ldflags; "dev" covers local builds.
var version = "dev"

var (
	flagModels          []string
	flagThreshold       float32
	flagTriggerLevel    int
	flagRefractory      int
	flagStepFrames      int
	flagMelModel        string
	flagEmbModel        string
	flagVADModel        string
	flagVADThreshold    float32
	flagEnableNoiseSup  bool
	flagQuiet           bool
	flagVerbose         bool
	flagJSON            bool
	flagTimestamp       bool
	flagDebug           bool
	flagConfig          string
	flagListen          string
	flagInput           string
	flagMicrophone      bool
	flagListModels      bool
)

var rootCmd = &cobra.Command{
	Use:     "wakeword",
	Short:   "Streaming wake-word detection over raw PCM audio",
	Version: version,
	Long: `wakeword reads 16kHz mono PCM16LE audio from stdin, a file, a WAV
container, or a microphone, and reports wake-word detections as they cross
each detector's activation threshold.

Example:
  wakeword --melspectrogram-model mel.onnx --embedding-model emb.onnx \
           -m hey_test.onnx < audio.raw`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringArrayVarP(&flagModels, "model", "m", nil, "path to a wake-word classifier model (repeatable)")
	rootCmd.Flags().Float32VarP(&flagThreshold, "threshold", "t", 0.5, "activation threshold (0-1)")
	rootCmd.Flags().IntVarP(&flagTriggerLevel, "trigger-level", "l", 4, "consecutive activations required to trigger")
	rootCmd.Flags().IntVarP(&flagRefractory, "refractory", "r", 20, "steps to wait after a trigger before re-arming")
	rootCmd.Flags().IntVar(&flagStepFrames, "step-frames", 4, "number of 80ms audio chunks the mel model consumes per inference")
	rootCmd.Flags().StringVar(&flagMelModel, "melspectrogram-model", "", "path to the mel spectrogram ONNX model")
	rootCmd.Flags().StringVar(&flagEmbModel, "embedding-model", "", "path to the speech embedding ONNX model")
	rootCmd.Flags().StringVar(&flagVADModel, "vad-model", "", "path to an optional VAD ONNX model (advisory only)")
	rootCmd.Flags().Float32Var(&flagVADThreshold, "vad-threshold", 0.5, "enable advisory VAD scoring; the threshold value itself is not applied or logged, and never gates audio")
	rootCmd.Flags().BoolVar(&flagEnableNoiseSup, "enable-noise-suppression", false, "run spectral-subtraction noise suppression ahead of the mel stage")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "suppress the startup/ready log lines and detection output on stdout")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "enable verbose logging")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "emit detections as JSON records instead of plain text")
	rootCmd.Flags().BoolVar(&flagTimestamp, "timestamp", false, "include a timestamp with each detection")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "print every prediction (not just triggers) to stderr")
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to a YAML configuration file")
	rootCmd.Flags().StringVar(&flagListen, "listen", "", "optional address to serve a websocket detection feed on, e.g. :8080")
	rootCmd.Flags().StringVar(&flagInput, "input", "", "path to an audio file (raw PCM16LE or WAV); defaults to stdin")
	rootCmd.Flags().BoolVar(&flagMicrophone, "microphone", false, "capture from the default input device instead of a file/stdin")
	rootCmd.Flags().BoolVar(&flagListModels, "list-models", false, "print the configured model paths and exit")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if flagListModels {
		printModelList(cfg)
		return nil
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	p, closers, err := buildPipeline(cfg, logger)
	defer closeAll(closers)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	p.Start(ctx)
	if err := p.WaitUntilReady(ctx); err != nil {
		return fmt.Errorf("pipeline failed to become ready: %w", err)
	}
	if !cfg.Quiet {
		logger.Info("ready")
	}

	select {
	case <-ctx.Done():
	case <-p.Done():
	}
	p.Stop()
	return nil
}

func buildConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.DefaultConfig()
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig, cfg)
		if err != nil {
			return cfg, err
		}
	}

	if flagMelModel != "" {
		cfg.MelModelPath = flagMelModel
	}
	if flagEmbModel != "" {
		cfg.EmbModelPath = flagEmbModel
	}
	for _, m := range flagModels {
		cfg.WakeWords = append(cfg.WakeWords, config.WakeWord{
			Name:            wakeWordName(m),
			ModelPath:       m,
			Threshold:       flagThreshold,
			TriggerLevel:    flagTriggerLevel,
			RefractorySteps: flagRefractory,
		})
	}
	if flagVADModel != "" {
		cfg.VADModelPath = flagVADModel
	}
	if cmd.Flags().Changed("vad-threshold") {
		cfg.VADThreshold = flagVADThreshold
	}
	if cfg.VADModelPath != "" || cmd.Flags().Changed("vad-threshold") {
		cfg.VADEnabled = true
	}
	cfg.EnableNoiseSup = flagEnableNoiseSup
	cfg.InputPath = flagInput
	cfg.UseMic = flagMicrophone
	cfg.Listen = flagListen
	cfg.Quiet = flagQuiet
	cfg.Verbose = flagVerbose
	cfg.JSON = flagJSON
	cfg.Timestamp = flagTimestamp
	cfg.Debug = flagDebug

	return cfg, nil
}

func wakeWordName(modelPath string) string {
	base := modelPath
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' || base[i] == '\\' {
			base = base[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}

func printModelList(cfg config.Config) {
	fmt.Printf("melspectrogram: %s\n", cfg.MelModelPath)
	fmt.Printf("embedding: %s\n", cfg.EmbModelPath)
	if cfg.VADModelPath != "" {
		fmt.Printf("vad: %s\n", cfg.VADModelPath)
	}
	for _, w := range cfg.WakeWords {
		fmt.Printf("wake_word: %s -> %s\n", w.Name, w.ModelPath)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	if cfg.Quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

func buildPipeline(cfg config.Config, logger *slog.Logger) (*pipeline.Pipeline, []io.Closer, error) {
	var closers []io.Closer

	env, err := model.NewEnv("wakeword", cfg.IntraOpThreads, cfg.InterOpThreads)
	if err != nil {
		return nil, closers, err
	}
	closers = append(closers, env)

	frameSize := flagStepFrames * wakeword.ChunkSamples
	melSession, err := env.Load(cfg.MelModelPath, "input", "output", []int64{1, int64(frameSize)})
	if err != nil {
		return nil, closers, err
	}

	embSession, err := env.Load(cfg.EmbModelPath, "input_1", "output_1",
		[]int64{1, wakeword.EmbeddingWindow, wakeword.NumMels, 1})
	if err != nil {
		return nil, closers, err
	}

	detSpecs := make([]pipeline.DetectorSpec, 0, len(cfg.WakeWords))
	for _, w := range cfg.WakeWords {
		session, err := env.Load(w.ModelPath, "input_1", "output_1",
			[]int64{1, wakeword.WakewordFeatures, wakeword.EmbeddingFeatures})
		if err != nil {
			return nil, closers, err
		}
		detSpecs = append(detSpecs, pipeline.DetectorSpec{
			Config: detector.Config{
				Name:            w.Name,
				Threshold:       w.Threshold,
				TriggerLevel:    w.TriggerLevel,
				RefractorySteps: w.RefractorySteps,
			},
			Session: session,
		})
		logger.Info("loaded wake word model", "name", w.Name, "path", w.ModelPath)
	}

	source, srcCloser, err := pcmsource.Open(cfg)
	if err != nil {
		return nil, closers, err
	}
	closers = append(closers, srcCloser)

	mode := sink.Plain
	if cfg.JSON {
		mode = sink.JSON
	}
	if cfg.Quiet {
		mode = sink.Silent
	}
	sinks := []sink.Sink{sink.NewTextSink(os.Stdout, mode, cfg.Timestamp)}

	if cfg.Listen != "" {
		ws := sink.NewWebSocketSink(logger)
		sinks = append(sinks, ws)
		mux := http.NewServeMux()
		mux.Handle("/detections", ws.Handler())
		server := &http.Server{Addr: cfg.Listen, Handler: mux}
		go func() {
			logger.Info("serving websocket detection feed", "addr", cfg.Listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("websocket server stopped", "error", err)
			}
		}()
	}

	// VAD is opt-in: a scorer is only built when the caller asked for one via
	// --vad-model or --vad-threshold (or the equivalent YAML fields). Left
	// nil otherwise, so pipeline.Config.VADScorer stays nil and every frame
	// skips scoring by default.
	var scorer vad.Scorer
	if cfg.VADEnabled {
		if cfg.VADModelPath != "" {
			vadSession, err := env.Load(cfg.VADModelPath, "input", "output", nil)
			if err != nil {
				return nil, closers, err
			}
			scorer = vad.NewModelScorer(vadSession)
		} else {
			webrtcScorer, err := vad.NewWebRTCScorer(wakeword.SampleRate, cfg.VADMode)
			if err != nil {
				logger.Warn("webrtc VAD unavailable, falling back to energy heuristic", "error", err)
				scorer = vad.NewEnergyScorer(0.02 * 32768)
			} else {
				scorer = webrtcScorer
			}
		}
	}

	var suppressor *noise.Suppressor
	if cfg.EnableNoiseSup {
		// The suppressor's FFT window is independent of the ingest chunk
		// size (1280, not a power of two); it buffers internally and
		// overlap-adds its own 512-sample windows regardless of how the
		// caller chunks audio.
		suppressor = noise.New(512)
	}

	p := pipeline.New(pipeline.Config{
		Source:          source,
		MelModel:        melSession,
		EmbModel:        embSession,
		Detectors:       detSpecs,
		Sink:            sink.NewMulti(sinks...),
		MelFrameSize:    frameSize,
		VADScorer:       scorer,
		NoiseSuppressor: suppressor,
		Debug:           cfg.Debug,
	})

	return p, closers, nil
}
