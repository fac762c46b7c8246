package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"frontpriority/internal/booster"
	"frontpriority/internal/config"
	"frontpriority/internal/daemon"
	"frontpriority/internal/history"
	"frontpriority/internal/priority"
	"frontpriority/internal/watcher"
	"frontpriority/internal/web"
	"frontpriority/internal/x11"
	"frontpriority/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		runForeground()
	case "start":
		startDaemon()
	case "serve":
		serveDaemon()
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "history":
		showHistory()
	case "clear":
		clearHistory()
	case "version":
		showVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`frontpriority - Prioritize the process of the active X window

Watches the window manager's active-window property and renices the owning
process, restoring the previous priority when focus moves away.

Usage:
  frontpriority <command> [options]

Commands:
  run                Run the watcher in the foreground
  start              Start the watcher as a background daemon
  serve              Start the daemon with a web status API
  stop               Stop the background watcher
  status             Show watcher status and the current boost
  history [--json]   Show recent priority changes
  clear              Clear all history from the database
  version            Show version information
  help               Show this help message

Options for run, start and serve:
  -delta N           Add N to the focused process's nice value (default -1)
  -set N             Set the focused process's nice value to N

Examples:
  frontpriority run -delta -5
  frontpriority start -set -10
  frontpriority status
  frontpriority stop

Environment Variables:
  FRONTPRIORITY_DELTA      Priority delta (same as -delta)
  FRONTPRIORITY_SET        Absolute priority (same as -set)
  FRONTPRIORITY_DB_PATH    History database file path
  FRONTPRIORITY_HISTORY    Record history (true/false)
  FRONTPRIORITY_PID_FILE   PID file path
  FRONTPRIORITY_WEB_HOST   Web API host (serve)
  FRONTPRIORITY_WEB_PORT   Web API port (serve)

Raising priority (nice below 0) needs a limits.conf entry, e.g.:
  username        -       nice            -10

Version: %s
`, version.Version)
}

// loadConfig builds the effective configuration: defaults, then environment,
// then command-line flags. The priority rule is fixed from here on.
func loadConfig(args []string) *config.Config {
	cfg := config.New()

	fs := flag.NewFlagSet("frontpriority", flag.ExitOnError)
	delta := fs.Int("delta", 0, "add N to the focused process's nice value")
	set := fs.Int("set", 0, "set the focused process's nice value to N")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "delta":
			cfg.Priority = priority.AddDelta(*delta)
		case "set":
			cfg.Priority = priority.SetAbsolute(*set)
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func runForeground() {
	cfg := loadConfig(os.Args[2:])

	dm := daemon.New(cfg.Daemon.PIDFile)
	guardNotRunning(dm)

	runWatcher(cfg, dm, false)
}

func startDaemon() {
	cfg := loadConfig(os.Args[2:])

	dm := daemon.New(cfg.Daemon.PIDFile)
	guardNotRunning(dm)

	if os.Getenv("FRONTPRIORITY_DAEMON_CHILD") != "1" {
		daemonize(false)
		return
	}

	redirectLogToFile()
	runWatcher(cfg, dm, false)
}

func serveDaemon() {
	cfg := loadConfig(os.Args[2:])

	dm := daemon.New(cfg.Daemon.PIDFile)
	guardNotRunning(dm)

	if os.Getenv("FRONTPRIORITY_DAEMON_CHILD") != "1" {
		daemonize(true)
		return
	}

	redirectLogToFile()
	runWatcher(cfg, dm, true)
}

func guardNotRunning(dm *daemon.Daemon) {
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check watcher status: %v", err)
	}
	if running {
		log.Fatalf("Watcher is already running (PID: %d)", pid)
	}
}

func redirectLogToFile() {
	logPath := fmt.Sprintf("/tmp/frontpriority-%d.log", os.Getuid())
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		log.SetOutput(logFile)
	}
}

// runWatcher wires the components together and blocks until the watcher is
// interrupted. On SIGINT/SIGTERM the boosted process is reverted first, then
// the default disposition is restored and the signal re-raised so the exit
// status is the conventional signal-induced one.
func runWatcher(cfg *config.Config, dm *daemon.Daemon, withWeb bool) {
	var repo *history.Repository
	if cfg.History.Enabled {
		db, err := history.Connect(cfg.History.DBPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Initialize(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		repo = history.NewRepository(db)
	}

	client, err := x11.NewClient()
	if err != nil {
		log.Fatalf("Failed to connect to the X display: %v", err)
	}
	defer client.Close()

	var recorder booster.Recorder
	if repo != nil {
		recorder = repo
	}
	boost := booster.New(cfg.Priority, priority.System{}, recorder)
	svc := watcher.NewService(client, boost, repo)

	if err := dm.WritePID(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer dm.RemovePID()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var webServer *web.Server
	if withWeb {
		webServer = web.NewServer(cfg, boost, repo)
		go func() {
			if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Web server error: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v, reverting priority before exit", sig)

		// The event loop is left blocked on the X connection: this goroutine
		// is the sole exit path, so the re-raise below decides the exit
		// status. Revert runs here, not inside an async signal context; it
		// takes the same lock as the event loop, so a transition in flight
		// completes before the revert.
		shutdownOnSignal(sig, boost, dm, webServer, reraise)
	}()

	log.Println("Starting frontpriority watcher...")
	log.Printf("Configuration:\n%s", cfg.String())
	if withWeb && webServer != nil {
		log.Printf("Web API available at: http://%s", webServer.GetAddress())
	}

	if err := svc.Start(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Watcher error: %v", err)
	}

	log.Println("Watcher stopped successfully")
}

// shutdownOnSignal performs the cleanup that must finish before a
// signal-induced exit, then hands control to raise. Everything stateful —
// the revert above all — happens before the signal is re-raised.
func shutdownOnSignal(sig os.Signal, boost *booster.Booster, dm *daemon.Daemon, webServer *web.Server, raise func(os.Signal)) {
	boost.Revert()
	dm.RemovePID()

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		webServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	raise(sig)
}

// reraise restores the default disposition and delivers the signal again, so
// the process terminates with the conventional signal-induced exit status.
func reraise(sig os.Signal) {
	signal.Reset(sig)
	syscall.Kill(os.Getpid(), sig.(syscall.Signal))
}

func stopDaemon() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check watcher status: %v", err)
	}
	if !running {
		fmt.Println("Watcher is not running")
		return
	}
	fmt.Printf("Stopping watcher (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		log.Fatalf("Failed to stop watcher: %v", err)
	}
	fmt.Println("Watcher stopped successfully")
}

func showStatus() {
	cfg := config.New()
	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check watcher status: %v", err)
	}
	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Println(configuredRuleLine(cfg.Priority))
	}

	client, err := x11.NewClient()
	if err != nil {
		fmt.Printf("\nCould not query the X display: %v\n", err)
		return
	}
	defer client.Close()

	if activePID, ok := client.ActivePID(); ok {
		fmt.Printf("\nActive window owner: PID %d\n", activePID)
		if nice, err := (priority.System{}).Get(activePID); err == nil {
			fmt.Printf("Current priority: %d\n", nice)
		}
	} else {
		fmt.Println("\nNo active window with a resolvable owner")
	}
}

// configuredRuleLine describes the rule this environment would start a
// watcher with. Flags are not persisted, so a running watcher keeps whatever
// rule it was started with regardless of what this process sees.
func configuredRuleLine(r priority.Rule) string {
	return fmt.Sprintf("Configured rule: %s (a running watcher applies the rule it was started with)", r)
}

func showHistory() {
	jsonOutput := len(os.Args) > 2 && os.Args[2] == "--json"

	cfg := config.New()
	repo, db, err := openHistory(cfg)
	if err != nil {
		if err == errHistoryDisabled {
			fmt.Println("History is disabled (FRONTPRIORITY_HISTORY=false)")
			return
		}
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	events, err := repo.GetRecent(50)
	if err != nil {
		log.Fatalf("Failed to query history: %v", err)
	}

	if jsonOutput {
		if err := printHistoryJSON(events); err != nil {
			log.Fatalf("Failed to format JSON: %v", err)
		}
		return
	}

	if len(events) == 0 {
		fmt.Println("No recorded priority changes")
		return
	}
	for _, ev := range events {
		mark := ""
		if ev.Failed {
			mark = " (failed)"
		}
		switch ev.Action {
		case history.ActionRevert:
			fmt.Printf("%s  revert  PID %-7d -> %d%s\n",
				ev.Timestamp.Format("2006-01-02 15:04:05"), ev.PID, ev.ToPriority, mark)
		default:
			fmt.Printf("%s  boost   PID %-7d %d -> %d%s\n",
				ev.Timestamp.Format("2006-01-02 15:04:05"), ev.PID, ev.FromPriority, ev.ToPriority, mark)
		}
	}
}

var errHistoryDisabled = errors.New("history is disabled")

// openHistory opens the history database, unless the configuration disables
// recording — then nothing is opened and no database file springs into
// existence as a side effect.
func openHistory(cfg *config.Config) (*history.Repository, *history.DB, error) {
	if !cfg.History.Enabled {
		return nil, nil, errHistoryDisabled
	}
	db, err := history.Connect(cfg.History.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return history.NewRepository(db), db, nil
}

func printHistoryJSON(events []*history.BoostEvent) error {
	out, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func clearHistory() {
	cfg := config.New()
	if !cfg.History.Enabled {
		fmt.Println("History is disabled (FRONTPRIORITY_HISTORY=false)")
		return
	}
	fmt.Print("This will delete all recorded priority changes. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)
	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}
	repo, db, err := openHistory(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := repo.Clear(); err != nil {
		log.Fatalf("Failed to clear history: %v", err)
	}
	fmt.Println("History cleared successfully")
}

func daemonize(withWeb bool) {
	env := os.Environ()
	env = append(env, "FRONTPRIORITY_DAEMON_CHILD=1")
	args := os.Args
	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil},
		Sys:   &syscall.SysProcAttr{Setsid: true},
	}
	process, err := os.StartProcess(args[0], args, procAttr)
	if err != nil {
		log.Fatalf("Failed to start daemon process: %v", err)
	}
	logPath := fmt.Sprintf("/tmp/frontpriority-%d.log", os.Getuid())
	fmt.Printf("Watcher started successfully (PID: %d)\n", process.Pid)
	if withWeb {
		fmt.Println("Web API started, see log for address")
	}
	fmt.Printf("Logs: %s\n", logPath)
}

func showVersion() {
	fmt.Printf("version: %s\n", version.Version)
	fmt.Printf("built  : %s\n", version.Date)
}
