package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"frontpriority/internal/booster"
	"frontpriority/internal/config"
	"frontpriority/internal/daemon"
	"frontpriority/internal/priority"
)

// seqOps records every priority syscall into a shared sequence so the
// shutdown ordering can be asserted.
type seqOps struct {
	mu   sync.Mutex
	nice map[int]int
	seq  *[]string
}

func (f *seqOps) Get(pid int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nice[pid], nil
}

func (f *seqOps) Set(pid int, nice int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nice[pid] = nice
	*f.seq = append(*f.seq, fmt.Sprintf("set %d=%d", pid, nice))
	return nil
}

func TestShutdownOnSignalOrdering(t *testing.T) {
	var seq []string
	ops := &seqOps{nice: map[int]int{100: 10}, seq: &seq}
	boost := booster.New(priority.AddDelta(-5), ops, nil)
	boost.OnFocusChange(100)

	pidFile := filepath.Join(t.TempDir(), "watcher.pid")
	dm := daemon.New(pidFile)
	if err := dm.WritePID(); err != nil {
		t.Fatalf("WritePID() error: %v", err)
	}

	raise := func(sig os.Signal) {
		seq = append(seq, "raise "+sig.String())
	}

	shutdownOnSignal(os.Interrupt, boost, dm, nil, raise)

	// The revert and the PID file removal must be complete before the
	// signal is re-raised; nothing may run after the re-raise.
	want := []string{"set 100=5", "set 100=10", "raise interrupt"}
	if len(seq) != len(want) {
		t.Fatalf("sequence = %v, want %v", seq, want)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("sequence[%d] = %q, want %q (full: %v)", i, seq[i], want[i], seq)
		}
	}

	if _, _, boosted := boost.Current(); boosted {
		t.Error("a process is still tracked as boosted after the signal path")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Errorf("PID file still exists after the signal path (stat err: %v)", err)
	}
}

func TestShutdownOnSignalIdleIsNoop(t *testing.T) {
	var seq []string
	ops := &seqOps{nice: map[int]int{}, seq: &seq}
	boost := booster.New(priority.AddDelta(-5), ops, nil)

	pidFile := filepath.Join(t.TempDir(), "watcher.pid")
	dm := daemon.New(pidFile)

	raised := false
	shutdownOnSignal(os.Interrupt, boost, dm, nil, func(sig os.Signal) { raised = true })

	if len(seq) != 0 {
		t.Errorf("syscalls made while idle: %v", seq)
	}
	if !raised {
		t.Error("signal was not re-raised")
	}
}

func TestOpenHistoryDisabled(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "frontpriority.db")
	cfg := config.Default()
	cfg.History.Enabled = false
	cfg.History.DBPath = dbPath

	repo, db, err := openHistory(cfg)
	if err != errHistoryDisabled {
		t.Fatalf("openHistory() error = %v, want errHistoryDisabled", err)
	}
	if repo != nil || db != nil {
		t.Error("openHistory() returned a repository despite history being disabled")
	}
	if _, statErr := os.Stat(dbPath); !os.IsNotExist(statErr) {
		t.Errorf("database file was created despite history being disabled (stat err: %v)", statErr)
	}
}

func TestConfiguredRuleLine(t *testing.T) {
	line := configuredRuleLine(priority.SetAbsolute(-10))
	if !strings.Contains(line, "set -10") {
		t.Errorf("line %q does not name the rule", line)
	}
	if !strings.Contains(line, "started with") {
		t.Errorf("line %q does not say the running watcher keeps its own rule", line)
	}
}
