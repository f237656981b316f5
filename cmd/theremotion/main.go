package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Southclaws/fault/fmsg"
	"github.com/gin-gonic/gin"

	"github.com/cwbudde/theremotion/audio"
	"github.com/cwbudde/theremotion/conductor"
	"github.com/cwbudde/theremotion/internal/logging"
	"github.com/cwbudde/theremotion/internal/queue"
	"github.com/cwbudde/theremotion/irsynth"
	"github.com/cwbudde/theremotion/settings"
	"github.com/cwbudde/theremotion/synth"
	"github.com/cwbudde/theremotion/tracking"
	"github.com/cwbudde/theremotion/ui"
)

type options struct {
	settingsPath string
	device       string
	serialPort   string
	baudRate     int
	replayPath   string
	recordPath   string
	irPath       string
	body         bool
	sampleRate   int
	headless     bool
	httpAddr     string
	verbose      bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("theremotion", flag.ContinueOnError)
	fs.StringVar(&o.settingsPath, "settings", "", "Settings file (.json, .yaml or .yml)")
	fs.StringVar(&o.device, "device", "synthetic", "Tracking device: synthetic, serial or replay")
	fs.StringVar(&o.serialPort, "serial", "/dev/ttyACM0", "Serial port of the tracking bridge")
	fs.IntVar(&o.baudRate, "baud", tracking.DefaultBaudRate, "Serial baud rate")
	fs.StringVar(&o.replayPath, "replay", "", "Recording to play back (implies -device replay)")
	fs.StringVar(&o.recordPath, "record", "", "Record tracking frames to this file")
	fs.StringVar(&o.irPath, "ir", "", "Body impulse response WAV for the plucked strings")
	fs.BoolVar(&o.body, "body", true, "Synthesize a guitar body IR for the strings when -ir is not given")
	fs.IntVar(&o.sampleRate, "sample-rate", 48000, "Audio sample rate in Hz")
	fs.BoolVar(&o.headless, "headless", false, "Run without the panel window, with a terminal status line")
	fs.StringVar(&o.httpAddr, "http", "", "Serve the HTTP control surface on this address (e.g. :8088)")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.replayPath != "" {
		o.device = "replay"
	}
	if o.sampleRate < 8000 || o.sampleRate > 192000 {
		return options{}, fmt.Errorf("sample rate %d out of range 8000..192000", o.sampleRate)
	}
	return o, nil
}

func openDevice(o options) (tracking.Device, error) {
	switch o.device {
	case "synthetic":
		return &tracking.Synthetic{Realtime: true}, nil
	case "serial":
		return &tracking.Serial{Port: o.serialPort, BaudRate: o.baudRate}, nil
	case "replay":
		if o.replayPath == "" {
			return nil, fmt.Errorf("-device replay needs -replay")
		}
		rec, err := tracking.LoadRecording(o.replayPath)
		if err != nil {
			return nil, fmt.Errorf("load recording %s: %w", o.replayPath, err)
		}
		return &tracking.Replay{Recording: rec, Realtime: true, Loop: true}, nil
	}
	return nil, fmt.Errorf("unknown device %q (expected synthetic, serial or replay)", o.device)
}

func loadSettings(path string) (settings.Settings, error) {
	if path == "" {
		return settings.Default(), nil
	}
	return settings.Load(path)
}

// setupBody loads the -ir file, or synthesizes a body at the engine rate.
func setupBody(inst *synth.Instrument, o options, log *slog.Logger) {
	switch {
	case o.irPath != "":
		if err := inst.SetBodyIRFromWAV(o.irPath); err != nil {
			log.Warn("body IR not loaded, strings stay dry", "path", o.irPath, "err", err)
		}
	case o.body:
		cfg := irsynth.DefaultConfig()
		cfg.SampleRate = o.sampleRate
		left, right, err := irsynth.Generate(cfg)
		if err != nil {
			log.Warn("body IR not synthesized, strings stay dry", "err", err)
			return
		}
		inst.SetBodyIR(left, right)
		log.Debug("synthesized body IR", "samples", len(left))
	}
}

func exitError(log *slog.Logger, msg string, err error) {
	issue := fmsg.GetIssue(err)
	if issue == "" {
		issue = err.Error()
	}
	log.Error(msg, "err", err)
	fmt.Fprintf(os.Stderr, "Error: %s\n", issue)
	os.Exit(1)
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	log := logging.Init(o.verbose)

	s, err := loadSettings(o.settingsPath)
	if err != nil {
		exitError(log, "load settings", err)
	}
	if s.System.HighPriority {
		if err := raisePriority(); err != nil {
			log.Warn("raise process priority", "err", err)
		}
	}
	dev, err := openDevice(o)
	if err != nil {
		exitError(log, "tracking device", err)
	}

	state := synth.NewState(synth.DefaultParams())
	inst := synth.NewInstrument(o.sampleRate, state)
	setupBody(inst, o, log)
	out, err := audio.Open(inst, o.sampleRate, log)
	if err != nil {
		exitError(log, "audio output", err)
	}
	if err := out.Start(); err != nil {
		exitError(log, "audio output", err)
	}
	defer out.Close()

	messages := queue.New[conductor.Message]()
	pending := queue.New[settings.Settings]()
	trackerSettings := queue.New[settings.Settings]()
	toConductor := conductor.SettingsSender{Settings: pending, Messages: messages}
	_ = trackerSettings.Send(s)
	_ = toConductor.Send(s)

	cond := conductor.New(state, conductor.DefaultConfig(), log)
	// Every surface owns a model fed by its own snapshot queue.
	surface := func() *ui.Model {
		snaps := queue.New[conductor.Snapshot]()
		cond.AddSink(snaps)
		return ui.NewModel(s, snaps, messages, toConductor, trackerSettings)
	}
	model := surface()
	var web *ui.Web
	if o.httpAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		web = ui.NewWeb(surface(), log)
	}

	reader := &tracking.Reader{
		Device:   dev,
		Settings: trackerSettings,
		Out:      messages,
		Logger:   log,
	}
	if o.recordPath != "" {
		f, err := os.Create(o.recordPath)
		if err != nil {
			exitError(log, "create recording", err)
		}
		defer f.Close()
		rec, err := tracking.NewRecorder(f)
		if err != nil {
			exitError(log, "start recording", err)
		}
		reader.Recorder = rec
		log.Info("recording", "path", o.recordPath, "session", rec.Session())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := reader.Run(ctx); err != nil {
			log.Error("tracking reader", "err", err)
		}
	}()
	go func() {
		defer wg.Done()
		defer stop()
		if err := cond.Run(ctx, messages, pending); err != nil && ctx.Err() == nil {
			log.Error("conductor", "err", err)
		}
	}()

	if web != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := web.Serve(ctx, o.httpAddr); err != nil {
				log.Error("http surface", "err", err)
				stop()
			}
		}()
	}

	if o.headless {
		runMonitor(ctx, model, os.Stdout)
		model.Close()
	} else if err := ui.RunPanel(model, log); err != nil {
		log.Error("panel", "err", err)
	}
	stop()
	messages.Close()
	wg.Wait()
}
