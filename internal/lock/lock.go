package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
)

const fileName = "LOCK"

// HeldError is returned when another process already runs against the profile.
type HeldError struct {
	PID   int
	Owner string
	Path  string
}

func (e *HeldError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("profile in use by %s (PID %d, %s)", e.Owner, e.PID, e.Path)
	}
	return fmt.Sprintf("profile in use by PID %d (%s)", e.PID, e.Path)
}

// Info is the content of a lock file.
type Info struct {
	PID   int
	Owner string
	Since time.Time
}

// Lock is an acquired profile lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive lock on dir on behalf of owner (the binary name).
func Acquire(dir, owner string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	path := filepath.Join(dir, fileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		info, _ := Holder(dir)
		held := &HeldError{Path: path}
		if info != nil {
			held.PID, held.Owner = info.PID, info.Owner
		}
		return nil, held
	}

	if err := write(f, owner); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{file: f, path: path}, nil
}

func write(f *os.File, owner string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "pid=%d\nowner=%s\ntime=%s\n",
		os.Getpid(), owner, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Holder reads the lock file in dir. It returns nil when there is none.
func Holder(dir string) (*Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parse(string(data)), nil
}

func parse(content string) *Info {
	info := &Info{}
	for _, line := range strings.Split(content, "\n") {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			info.PID, _ = strconv.Atoi(val)
		case "owner":
			info.Owner = val
		case "time":
			info.Since, _ = time.Parse(time.RFC3339, val)
		}
	}
	return info
}

// Release removes the lock file and unlocks. Safe on a nil or released lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		err = nil
	}
	err = multierr.Append(err, l.file.Close())
	l.file = nil
	return err
}
