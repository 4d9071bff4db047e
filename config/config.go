package config

import (
	"errors"
	"flag"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shirou/gopsutil/v3/cpu"

	"threadpace/constants"
	"threadpace/pacing"
)

// Configuration system:
// - TOML file with [thread], [pacing], [run] and [logging] sections
// - Command line flags override file values
// - Durations are Go duration strings ("250ms")

// AppConfig is the complete configuration of the threadpace command.
type AppConfig struct {
	Thread  ThreadConfig  `toml:"thread"`
	Pacing  pacing.File   `toml:"pacing"`
	Run     RunConfig     `toml:"run"`
	Logging LoggingConfig `toml:"logging"`
}

// ThreadConfig names and pins the managed thread.
type ThreadConfig struct {
	// OS-visible name, at most 15 bytes (default: "threadpace")
	Name string `toml:"name"`

	// Cores to pin to (default: every logical CPU)
	Cores []int `toml:"cores"`
}

// RunConfig tunes the demo run loop.
type RunConfig struct {
	// Length of one sleep phase (default: "1ms")
	SleepFor string `toml:"sleep_for"`

	// How long the loop stays hot after work (default: "1s")
	Cooldown string `toml:"cooldown"`

	// Stop after this long; empty runs until interrupted
	Duration string `toml:"duration"`

	// How often the last snapshot is logged (default: "1s")
	ReportEvery string `toml:"report_every"`

	// Every Nth logic call reports no work, to exercise empty-loop pacing
	IdleEvery int `toml:"idle_every"`

	// Print Prometheus text exposition on exit
	DumpMetrics bool `toml:"dump_metrics"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	// trace, debug, info, warn, error (default: "info")
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Thread: ThreadConfig{
			Name:  "threadpace",
			Cores: AllCores(),
		},
		Pacing: pacing.File{
			FlushStatistic: "1s",
		},
		Run: RunConfig{
			SleepFor:    constants.DefaultSleep.String(),
			Cooldown:    constants.DefaultCooldown.String(),
			ReportEvery: constants.StatReportEvery.String(),
			IdleEvery:   4,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// AllCores lists every logical CPU, as counted by gopsutil with a fallback
// to the Go runtime.
func AllCores() []int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	cores := make([]int, n)
	for i := range cores {
		cores[i] = i
	}
	return cores
}

// Load decodes a TOML file over the defaults.
func Load(path string) (*AppConfig, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration for consistency.
func (c *AppConfig) Validate() error {
	if len(c.Thread.Name) > constants.MaxThreadNameLen {
		return fmt.Errorf("config: thread name %q longer than %d bytes", c.Thread.Name, constants.MaxThreadNameLen)
	}
	for _, core := range c.Thread.Cores {
		if core < 0 || core >= constants.CPUSetBits {
			return fmt.Errorf("config: core %d out of range [0,%d)", core, constants.CPUSetBits)
		}
	}
	if _, err := c.Pacing.Config(); err != nil {
		return err
	}
	for name, s := range map[string]string{
		"sleep_for":    c.Run.SleepFor,
		"cooldown":     c.Run.Cooldown,
		"duration":     c.Run.Duration,
		"report_every": c.Run.ReportEvery,
	} {
		if _, err := ParseDuration(s); err != nil {
			return fmt.Errorf("config: run.%s: %w", name, err)
		}
	}
	if c.Run.IdleEvery < 0 {
		return errors.New("config: run.idle_every must not be negative")
	}
	return nil
}

// ParseDuration parses a duration string, treating "" as zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// ParseCores parses "0,2,4-7" into an ascending, duplicate-free list.
func ParseCores(s string) ([]int, error) {
	seen := map[int]struct{}{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if i := strings.IndexByte(part, '-'); i > 0 {
			lo, hi = part[:i], part[i+1:]
		}
		from, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("config: bad core %q: %w", part, err)
		}
		to, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("config: bad core %q: %w", part, err)
		}
		if from < 0 || to < from || to >= constants.CPUSetBits {
			return nil, fmt.Errorf("config: bad core range %q", part)
		}
		for c := from; c <= to; c++ {
			seen[c] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, errors.New("config: empty core list")
	}
	cores := make([]int, 0, len(seen))
	for c := range seen {
		cores = append(cores, c)
	}
	sort.Ints(cores)
	return cores, nil
}

// NewConfig parses args (without the program name), loads the file named by
// -config if any, and applies flag overrides.
func NewConfig(args []string) (*AppConfig, error) {
	fs := flag.NewFlagSet("threadpace", flag.ContinueOnError)
	var (
		path     = fs.String("config", "", "Path to a TOML configuration file")
		name     = fs.String("name", "", "OS-visible thread name")
		cores    = fs.String("cores", "", "Cores to pin to, e.g. 0,2,4-7")
		duration = fs.String("duration", "", "Stop after this long (e.g. 10s)")
		pacePath = fs.String("pacing", "", "Pacing file (.json or .toml) replacing [pacing]")
		level    = fs.String("log-level", "", "Log level")
		dump     = fs.Bool("dump-metrics", false, "Print Prometheus metrics on exit")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c := Default()
	if *path != "" {
		var err error
		if c, err = Load(*path); err != nil {
			return nil, err
		}
	}

	passed := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { passed[f.Name] = true })

	if passed["name"] {
		c.Thread.Name = *name
	}
	if passed["cores"] {
		list, err := ParseCores(*cores)
		if err != nil {
			return nil, err
		}
		c.Thread.Cores = list
	}
	if passed["duration"] {
		c.Run.Duration = *duration
	}
	if passed["pacing"] {
		pc, err := pacing.LoadFile(*pacePath)
		if err != nil {
			return nil, err
		}
		c.Pacing = pacing.FileOf(pc)
	}
	if passed["log-level"] {
		c.Logging.Level = *level
	}
	if passed["dump-metrics"] {
		c.Run.DumpMetrics = *dump
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
