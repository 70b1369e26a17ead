// Command storage-bench drives raw block-device I/O through the benchmark
// engine and prints a human-readable report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/behrlich/storage-bench/bench"
	"github.com/behrlich/storage-bench/internal/device"
	"github.com/behrlich/storage-bench/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(os.Args[2:])
	case "list":
		err = listCommand()
	case "info":
		err = infoCommand()
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: storage-bench <run|list|info> [flags]")
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	devicePath := fs.String("device", "", "raw block device path (required)")
	workloadStr := fs.String("workload", "seqread", "workload: seqread|seqwrite|randread|randwrite|seq|rand|all")
	blockSizeStr := fs.String("block-size", "", "block size, e.g. 4k, 128k, 1m (default depends on workload)")
	queueDepth := fs.Int("queue-depth", 32, "per-worker queue depth")
	threads := fs.Int("threads", 1, "number of worker threads")
	durationSecs := fs.Int("duration", 10, "benchmark duration in seconds")
	monitor := fs.Bool("monitor", false, "print a periodic status line while running")
	_ = fs.Bool("optimize", false, "accepted for compatibility; auto-tuning is not implemented")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logging.SetDefault(logging.NewLogger(logConfig))

	workload, err := bench.ParseWorkload(*workloadStr)
	if err != nil {
		return err
	}

	var blockSize uint32
	if *blockSizeStr != "" {
		blockSize, err = bench.ParseBlockSize(*blockSizeStr)
		if err != nil {
			return err
		}
	}

	cfg := bench.Config{
		DevicePath: *devicePath,
		Workload:   workload,
		BlockSize:  blockSize,
		QueueDepth: *queueDepth,
		Threads:    *threads,
		Duration:   time.Duration(*durationSecs) * time.Second,
		Monitor:    *monitor,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	engine, err := bench.New(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	results, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(bench.FormatResults(results))
	return nil
}

func listCommand() error {
	names, err := device.ListBlockDevices()
	if err != nil {
		return err
	}

	fmt.Println("Available storage devices:")
	fmt.Println()
	if len(names) == 0 {
		fmt.Println("  (none found under /sys/class/block)")
		return nil
	}
	for _, name := range names {
		fmt.Printf("  /dev/%s\n", name)
	}
	return nil
}

// infoCommand prints a minimal system-info notice. Full CPU/memory/NUMA
// reporting belongs to the out-of-scope monitor/optimizer subsystem; this
// just surfaces enough for a human to sanity-check the host before running.
func infoCommand() error {
	fmt.Printf("CPUs: %d\n", runtime.NumCPU())

	memTotal, err := readMemTotal()
	if err != nil {
		fmt.Printf("Memory: unavailable (%v)\n", err)
		return nil
	}
	fmt.Printf("Memory: %.2f GB total\n", float64(memTotal)/1024/1024)
	return nil
}

func readMemTotal() (uint64, error) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed MemTotal line: %q", line)
		}
		var kb uint64
		if _, err := fmt.Sscanf(fields[1], "%d", &kb); err != nil {
			return 0, err
		}
		return kb, nil
	}
	return 0, fmt.Errorf("MemTotal not found in /proc/meminfo")
}
