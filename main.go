package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tatara-dev/tatara/internal/tatara"
)

func usage() {
	fmt.Println("Usage: tatara [clean|verbose|version]")
	fmt.Println("  (none)   provision, incrementally build, link and package the firmware")
	fmt.Println("  clean    delete the build and release output directories")
	fmt.Println("  verbose  run the full pipeline, echoing every external invocation")
	fmt.Println("  version  print build identity")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGINT/SIGTERM cancel the pipeline; children die with their
	// process group via the executor's cancel watcher.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			fmt.Fprintf(os.Stderr, "\nReceived %v, aborting.\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	directive := ""
	if len(os.Args) > 1 {
		directive = os.Args[1]
	}

	cfg, err := tatara.LoadConfig(tatara.DefaultConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	switch directive {
	case "":
		if err := tatara.Run(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "verbose":
		tatara.Verbose = true
		if err := tatara.Run(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "clean":
		if err := tatara.Clean(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(tatara.VersionString())
	default:
		usage()
		os.Exit(1)
	}
}
