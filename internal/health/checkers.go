// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
)

// Pinger is implemented by stores that can report their availability.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingChecker reports a store unhealthy when its ping fails.
type PingChecker struct {
	name   string
	pinger Pinger
}

// NewPingChecker wraps p as a named checker.
func NewPingChecker(name string, p Pinger) *PingChecker {
	return &PingChecker{name: name, pinger: p}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.pinger.HealthCheck(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// DirChecker verifies that a directory exists and accepts writes.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a checker for path. An empty path is reported as
// healthy and unconfigured.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured"}
	}
	if err := checkWritableDir(c.path); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	tmp, err := os.CreateTemp(path, ".write_test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)
	return nil
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	CheckName string
	Fn        func(ctx context.Context) CheckResult
}

func (f CheckerFunc) Name() string { return f.CheckName }

func (f CheckerFunc) Check(ctx context.Context) CheckResult { return f.Fn(ctx) }
