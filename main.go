package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appmcp/pkg/capture"
	"appmcp/pkg/directory"
	"appmcp/pkg/dispatch"
	"appmcp/pkg/handle"
	"appmcp/pkg/input"
	"appmcp/pkg/logx"
	"appmcp/pkg/ocr"
	"appmcp/pkg/snapshot"
	"appmcp/pkg/uia"
)

const (
	serverName    = "appmcp"
	serverVersion = "0.2.0"

	sweepInterval = 60 * time.Second
)

func main() {
	var (
		detectModel = flag.String("ocr-detect-model", "", "Path to the ONNX text-detection model (OCR is reported unavailable when unset)")
		recogModel  = flag.String("ocr-recognize-model", "", "Path to the ONNX text-recognition model")
		maxImgSide  = flag.Int("max-image-side", capture.MaxLongSide, "Longest side of a snapshot image after downscaling, in pixels")
		watchETW    = flag.Bool("etw-watch", true, "Subscribe to ETW window lifecycle events (falls back to polling when unavailable)")
	)
	flag.Parse()

	walker, err := uia.NewMarshaler()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing UI Automation: %v\n", err)
		os.Exit(1)
	}
	defer walker.Close()

	registry := handle.New()
	enum := directory.NewWindowsEnumerator()
	dir := directory.New(enum, registry)
	capturer := capture.NewWindowsCapturer()

	var recognizer ocr.Recognizer
	if *detectModel != "" && *recogModel != "" {
		r, err := ocr.NewOnnxRecognizer(*detectModel, *recogModel)
		if err != nil {
			logx.Warnf("OCR models could not be loaded, text recognition disabled: %v", err)
		} else {
			recognizer = r
			defer r.Close()
		}
	}

	pipeline := snapshot.NewPipeline(walker, capturer, recognizer, registry)
	synth := input.NewSynthesizer(walker, input.NewWindowsPoster())

	var watcher *directory.WindowWatcher
	if *watchETW {
		watcher = directory.NewWindowWatcher()
		watcher.Start()
		if watcher.IsFallbackMode() {
			logx.Warnf("ETW window watch unavailable, window_appear/window_disappear will poll")
		}
		defer watcher.Close()
	}

	reportCapabilities(walker, capturer, recognizer, enum)

	srv := dispatch.NewServer(serverName, serverVersion, dispatch.Dependencies{
		Registry:     registry,
		Directory:    dir,
		Walker:       walker,
		Pipeline:     pipeline,
		Synth:        synth,
		Recognizer:   recognizer,
		Watcher:      watcher,
		MaxImageSide: *maxImgSide,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logx.Infof("shutting down")
		cancel()
	}()

	go sweepLoop(ctx, registry)

	if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// sweepLoop runs the registry's periodic sweep. A sweep failure is logged
// and retried on the next tick; it never takes the process down.
func sweepLoop(ctx context.Context, registry *handle.Registry) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logx.Errorf("handle sweep panicked: %v", r)
					}
				}()
				if dropped := registry.SweepExpired(); dropped > 0 {
					logx.Infof("handle sweep dropped %d stale entries", dropped)
				}
			}()
		}
	}
}

// reportCapabilities probes the accessibility and screen-capture paths once
// at startup and logs which tool families will be rejected. The server
// keeps running either way; affected calls fail per-request instead.
func reportCapabilities(walker uia.Walker, capturer capture.Capturer, recognizer ocr.Recognizer, enum directory.Enumerator) {
	apps, err := enum.ListApplications()
	if err != nil {
		logx.Warnf("application enumeration unavailable: %v", err)
		return
	}
	logx.Infof("accessibility: %d running applications visible", len(apps))

	probed := false
	for _, a := range apps {
		wins, err := enum.ListWindows(a.PID)
		if err != nil || len(wins) == 0 {
			continue
		}
		if _, err := walker.RootElement(wins[0].Ref); err != nil {
			logx.Warnf("accessibility tree probe failed, snapshots and input may be rejected: %v", err)
		}
		if _, err := capturer.CaptureWindow(wins[0].Ref, wins[0].Bounds); err != nil {
			logx.Warnf("screen capture probe failed, image-producing tools may be rejected: %v", err)
		}
		probed = true
		break
	}
	if !probed {
		logx.Warnf("no window available for the startup capability probe")
	}
	if recognizer == nil {
		logx.Infof("text recognition disabled (no OCR models configured)")
	}
}
