// kioskvm runs a loaded bytecode image against the host services defined
// by the syscall catalog (window, audio, timers, stdio).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/haloforge/kioskvm/pkg/executor"
	progimage "github.com/haloforge/kioskvm/pkg/image"
	kvmsyscall "github.com/haloforge/kioskvm/pkg/syscall"
)

var (
	programPath = flag.String("program", "", "Path to a compiled .kvm program image")
	allowFlags  allowList
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	statusFlag  = flag.Bool("status", false, "Print interpreter status (pc, stack depth, heap size) after exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// Version is the build version string.
var Version = "0.1.0"

// allowList accumulates repeated -allow flags into a permission set.
type allowList []string

func (a *allowList) String() string { return strings.Join(*a, ",") }
func (a *allowList) Set(v string) error {
	*a = append(*a, v)
	return nil
}

func init() {
	flag.Var(&allowFlags, "allow", "Grant a permission (repeatable): time_get_time, window_display, audio_output")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("kioskvm %s\n", Version)
		os.Exit(0)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	if *programPath == "" {
		log.Fatal("missing required -program flag")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	raw, err := os.ReadFile(*programPath)
	if err != nil {
		log.Fatalf("read program: %v", err)
	}

	prog, err := progimage.Load(raw)
	if err != nil {
		log.Fatalf("load program: %v", err)
	}

	perms := kvmsyscall.NewPermissionSet(allowFlags...)
	log.Printf("[%s] loaded %s: entry=%d code=%dB data=%dB permissions=[%s]",
		*logLevel, *programPath, prog.Entry, len(prog.Code), len(prog.Data), strings.Join(allowFlags, ","))

	host := executor.New(prog, executor.Config{
		Stdout:      os.Stdout,
		Stdin:       os.Stdin,
		Permissions: perms,
	})

	go func() {
		<-ctx.Done()
		host.Scheduler().Shutdown()
	}()

	start := time.Now()
	runErr := host.Run()
	elapsed := time.Since(start)

	if *statusFlag {
		st := host.Status()
		log.Printf("status: pc=%d stack_depth=%d heap_size=%d elapsed=%s", st.PC, st.StackDepth, st.HeapSize, elapsed)
	}

	if runErr != nil {
		log.Fatalf("run failed: %v", runErr)
	}
}
