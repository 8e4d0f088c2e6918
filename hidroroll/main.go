// Command hidroroll samples the rotation, pressure and endstop sensors of a
// HidroROLL machine and reports them to the collector.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/hidroroll/pkg/board"
	"github.com/itohio/hidroroll/pkg/config"
	"github.com/itohio/hidroroll/pkg/logging"
	"github.com/itohio/hidroroll/pkg/sample"
	"github.com/itohio/hidroroll/pkg/state"
	"github.com/itohio/hidroroll/pkg/status"
	"github.com/itohio/hidroroll/pkg/task"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked board instead of the configured one")
		debugFlag  = flag.Bool("debug", false, "Enable debug logging")
		listFlag   = flag.Bool("list", false, "List serial ports and exit")
	)
	flag.Parse()

	if *listFlag {
		listPorts()
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Board.Kind = config.BoardSerial
		cfg.Board.Serial.Port = *portFlag
	}
	if *mockFlag {
		cfg.Board.Kind = config.BoardMock
	}
	if *debugFlag {
		cfg.Log.Debug = true
	}

	logger := logging.NewStdLogger(log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds), cfg.Log.Debug)

	// Calibration failure is fatal before any loop starts
	cal, err := board.Characterize(cfg.Calibration.Unit, board.Attenuation(cfg.Calibration.Attenuation), cfg.Calibration.Width, cfg.Calibration.VRef)
	if err != nil {
		log.Fatalf("Failed to characterize ADC: %v", err)
	}
	logger.Info("ADC unit %d: %d dB, %d bit, vref %d mV", cal.Unit, cal.Attenuation, cal.Width, cal.VRef)

	dev, err := board.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create board: %v", err)
	}
	if err := dev.Connect(); err != nil {
		log.Fatalf("Failed to connect %s board: %v", cfg.Board.Kind, err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Error("Error closing board: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, dev, cal, logger); err != nil {
		logger.Error("%v", err)
		stop()
		if err := dev.Close(); err != nil {
			logger.Error("Error closing board: %v", err)
		}
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

// run wires the samplers and the publisher around one shared state and blocks
// until ctx is cancelled or a loop halts.
func run(ctx context.Context, cfg *config.Config, dev board.Board, cal *board.Characteristics, logger *logging.StdLogger) error {
	latest := state.New()

	rpm := sample.NewRPMSampler(dev, board.PinRotation, latest, logger.With("rpm"))
	if err := rpm.Start(); err != nil {
		// The first tick retries
		logger.Debug("RPM sampler start: %v", err)
	}

	analog := sample.NewAnalogSampler(dev, dev, cal, latest, logger.With("analog"), sample.AnalogConfig{
		Channel:    board.Channel(cfg.Sampling.AnalogChannel),
		EndstopPin: board.PinEndstop,
		Samples:    cfg.Sampling.AnalogSamples,
	})

	client := status.NewHTTPClient(cfg.Collector)
	defer client.Close()

	publisher := status.NewPublisher(client, latest, logger.With("status"), status.PublisherConfig{
		Identity: status.IdentityFromConfig(cfg.Identity),
		Path:     cfg.Collector.Path,
		Query:    cfg.Collector.Query,
	})
	if !cfg.Collector.SkipListing {
		_ = publisher.Prime(ctx)
	}

	err := task.RunAll(ctx, logger,
		rpm.Spec(cfg.Sampling.RPMInterval),
		analog.Spec(cfg.Sampling.AnalogInterval),
		publisher.Spec(cfg.Collector.Interval),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func listPorts() {
	ports, err := board.Ports()
	if err != nil {
		log.Fatalf("Failed to list serial ports: %v", err)
	}
	for _, p := range ports {
		log.Println(p.Name)
	}
}
