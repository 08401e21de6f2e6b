package main

import (
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof" // Enable pprof
	"os"
	"os/signal"
	"syscall"

	"github.com/openuv/videorx/internal/control"
	"github.com/openuv/videorx/internal/decoder"
	"github.com/openuv/videorx/internal/display"
	"github.com/openuv/videorx/internal/ingest"
	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/internal/metrics"
	"github.com/openuv/videorx/pkg/video"
)

var (
	// Command-line flags
	listenAddr  = flag.String("listen", ":5004", "RTP listen address")
	metricsAddr = flag.String("metrics", ":9090", "Metrics server address")
	pprofAddr   = flag.String("pprof", ":6060", "pprof server address")
	displayKind = flag.String("display", "file", "Display sink (file, null)")
	capturePath = flag.String("capture-path", "./captures", "File display output path")
	videoMode   = flag.String("mode", "normal", "Expected video mode (normal, dual-link, 3D, 3x1, tiled-4k)")
	encryption  = flag.String("encryption", "", "Decryption passphrase (empty = plaintext stream)")
	dropPolicy  = flag.String("drop-policy", "nonblock", "Frame drop policy (nonblock, blocking)")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error, silent)")
	logColor    = flag.Bool("log-color", true, "Enable colored log output")
)

func main() {
	flag.Parse()

	// Initialize logger
	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, *logColor)

	logger.Info("Main", "Video receiver starting...")

	mode := video.ModeFromString(*videoMode)
	if mode == video.ModeUnknown {
		log.Fatalf("Unknown video mode: %s", *videoMode)
	}

	policy := display.PutNonblock
	switch *dropPolicy {
	case "nonblock":
	case "blocking":
		policy = display.PutBlocking
	default:
		logger.Warn("Main", "Wrong drop policy %s!", *dropPolicy)
	}

	var disp display.Display
	switch *displayKind {
	case "file":
		if err := os.MkdirAll(*capturePath, 0755); err != nil {
			log.Fatalf("Failed to create capture directory: %v", err)
		}
		disp = display.NewFile(*capturePath)
	case "null":
		disp = display.NewMem(display.MemConfig{QueueLen: 1})
	default:
		log.Fatalf("Unknown display: %s", *displayKind)
	}

	ctrl := control.NewReporter()
	events := ctrl.Subscribe()
	go func() {
		for line := range events {
			logger.Debug("Control", "%s", line)
		}
	}()

	dec, err := decoder.New(decoder.Options{
		Mode:       mode,
		Encryption: *encryption,
		DropPolicy: policy,
		Control:    ctrl,
	})
	if err != nil {
		log.Fatalf("Failed to create decoder: %v", err)
	}
	dec.RegisterDisplay(disp)

	m := metrics.New(dec.Stats)

	asm := ingest.NewAssembler(dec, m)
	recv, err := ingest.NewReceiver(*listenAddr, asm)
	if err != nil {
		log.Fatalf("Failed to bind RTP socket: %v", err)
	}

	// Start pprof server
	go func() {
		logger.Info("Main", "Starting pprof server on %s", *pprofAddr)
		if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
			logger.Warn("Main", "pprof server error: %v", err)
		}
	}()

	// Start metrics server
	go func() {
		logger.Info("Main", "Starting metrics server on %s", *metricsAddr)
		if err := m.StartServer(*metricsAddr); err != nil {
			logger.Warn("Main", "Metrics server error: %v", err)
		}
	}()

	// Run the receive loop; it owns the decode thread.
	go func() {
		logger.Info("Main", "Listening for RTP on %s", *listenAddr)
		if err := recv.Run(); err != nil {
			logger.Info("Main", "Receive loop ended: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Main", "Shutting down...")

	recv.Close()
	dec.Destroy()
	ctrl.Close()
	if fd, ok := disp.(*display.FileDisplay); ok {
		fd.Close()
	}

	logger.Info("Main", "Receiver stopped")
}
