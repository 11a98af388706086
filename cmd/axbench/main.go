// Command axbench measures how fast the accessibility tree of a running
// application can be walked and captured, the dominant cost of every
// capture_ui_snapshot call. It drives the same pipeline the server uses,
// without the MCP transport in front of it.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"appmcp/pkg/capture"
	"appmcp/pkg/directory"
	"appmcp/pkg/handle"
	"appmcp/pkg/snapshot"
	"appmcp/pkg/uia"
)

func main() {
	var (
		processName = flag.String("process", "", "Process name of the application to benchmark")
		pid         = flag.Int("pid", 0, "Pid of the application to benchmark (alternative to --process)")
		iterations  = flag.Int("iterations", 10, "Number of snapshots to take")
		withImage   = flag.Bool("image", false, "Also capture and encode the window image each iteration")
		maxNodes    = flag.Int("max-nodes", uia.DefaultWalkLimits.MaxNodes, "Tree walk node ceiling")
	)
	flag.Parse()

	if *processName == "" && *pid == 0 {
		fmt.Println("Usage: axbench --process=NAME [--iterations=N] [--image]")
		fmt.Println("  --process: process name of the target application")
		fmt.Println("  --pid: pid of the target application")
		fmt.Println("  --iterations: number of snapshots to take (default: 10)")
		fmt.Println("  --image: also capture and encode the window image")
		os.Exit(1)
	}

	walker, err := uia.NewMarshaler()
	if err != nil {
		fmt.Printf("Error initializing UI Automation: %v\n", err)
		os.Exit(1)
	}
	defer walker.Close()

	registry := handle.New()
	dir := directory.New(directory.NewWindowsEnumerator(), registry)
	pipeline := snapshot.NewPipeline(walker, capture.NewWindowsCapturer(), nil, registry)

	sel := directory.AppSelector{ProcessName: *processName}
	if *pid != 0 {
		p := uint32(*pid)
		sel = directory.AppSelector{PID: &p}
	}
	appHandle, err := dir.ResolveApp(sel)
	if err != nil {
		fmt.Printf("Error resolving application: %v\n", err)
		os.Exit(1)
	}
	windowHandle, err := dir.ResolveWindow(appHandle, directory.WindowSelector{})
	if err != nil {
		fmt.Printf("Error resolving window: %v\n", err)
		os.Exit(1)
	}

	limits := uia.DefaultWalkLimits
	limits.MaxNodes = *maxNodes
	opts := snapshot.Options{WithImage: *withImage, WalkLimits: limits}

	var total time.Duration
	var nodes int
	for i := 0; i < *iterations; i++ {
		ref, err := dir.WindowRef(windowHandle)
		if err != nil {
			fmt.Printf("Error reading window reference: %v\n", err)
			os.Exit(1)
		}
		bounds, err := dir.WindowBounds(windowHandle)
		if err != nil {
			fmt.Printf("Error reading window bounds: %v\n", err)
			os.Exit(1)
		}
		title, _ := dir.WindowTitle(windowHandle)

		start := time.Now()
		snap, err := pipeline.Build(windowHandle, ref, title, bounds, opts)
		if err != nil {
			fmt.Printf("Error building snapshot: %v\n", err)
			os.Exit(1)
		}
		elapsed := time.Since(start)
		total += elapsed
		nodes = snap.ElementCount
		fmt.Printf("  #%d: %d elements in %v\n", i+1, snap.ElementCount, elapsed)
	}

	fmt.Printf("\n%d iterations, %d elements per walk, avg %v\n", *iterations, nodes, total/time.Duration(*iterations))
	fmt.Printf("registry entries after run: %d\n", registry.Len())
}
