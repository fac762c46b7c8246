//go:build linux

package priority

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// The raw Linux getpriority syscall returns 20-nice so the result can never
// collide with an errno. libc undoes that bias; x/sys/unix does not.
const niceBias = 20

// System performs real nice-value syscalls against PRIO_PROCESS targets.
type System struct{}

// Get returns the current nice value of the process pid.
func (System) Get(pid int) (int, error) {
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, pid)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get priority of PID %d", pid)
	}
	return niceBias - prio, nil
}

// Set sets the nice value of the process pid.
func (System) Set(pid int, nice int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, pid, nice); err != nil {
		return errors.Wrapf(err, "failed to set priority of PID %d", pid)
	}
	return nil
}
