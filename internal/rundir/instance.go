package rundir

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
)

const (
	lockName = "host.lock"
	pidName  = "host.pid"
)

// Instance is the claim a host holds on a runtime directory.
type Instance struct {
	lock *FileLock
	pid  *PIDFile
}

// Acquire claims root for this process. If another host holds it, the
// returned error has code ERR_204_INSTANCE_LOCKED and names its pid.
func Acquire(root string) (*Instance, error) {
	lock := NewFileLock(filepath.Join(root, lockName))
	pid := NewPIDFile(filepath.Join(root, pidName))

	acquired, err := lock.TryLock()
	if err != nil {
		return nil, herrors.New(herrors.ErrCodeRuntimeDir, "lock runtime directory", err).
			WithDetail("path", lock.Path())
	}
	if !acquired {
		herr := herrors.New(herrors.ErrCodeInstanceLocked,
			"another host owns the runtime directory", nil).
			WithDetail("path", root).
			WithSuggestion("Only one browser's host can drive Talon at a time; close the other browser or set a different runtime.dir")
		if other, err := pid.Read(); err == nil {
			herr = herr.WithDetail("pid", fmt.Sprint(other))
		}
		return nil, herr
	}

	if err := pid.Write(); err != nil {
		_ = lock.Unlock()
		return nil, herrors.New(herrors.ErrCodeRuntimeDir, "record host pid", err)
	}
	return &Instance{lock: lock, pid: pid}, nil
}

// Release removes the pid file and drops the lock.
func (i *Instance) Release() error {
	return errors.Join(i.pid.Remove(), i.lock.Unlock())
}

// Status describes who, if anyone, owns a runtime directory.
type Status struct {
	Root     string `json:"root"`
	Locked   bool   `json:"locked"`
	PID      int    `json:"pid,omitempty"`
	Running  bool   `json:"running"`
	LockPath string `json:"lock_path"`
	PIDPath  string `json:"pid_path"`
}

// Inspect reports the owner of root without disturbing it. A check that
// wins the lock releases it immediately.
func Inspect(root string) Status {
	lock := NewFileLock(filepath.Join(root, lockName))
	pid := NewPIDFile(filepath.Join(root, pidName))
	s := Status{Root: root, LockPath: lock.Path(), PIDPath: pid.Path()}
	if _, err := os.Stat(root); err != nil {
		return s
	}

	acquired, err := lock.TryLock()
	switch {
	case err != nil:
		slog.Debug("inspect runtime lock", slog.String("error", err.Error()))
	case acquired:
		_ = lock.Unlock()
	default:
		s.Locked = true
	}

	if n, err := pid.Read(); err == nil {
		s.PID = n
		s.Running = processExists(n)
	}
	return s
}
