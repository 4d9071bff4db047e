package pacing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sugawarayuuta/sonnet"
)

// File is the on-disk form of Config. Durations are Go duration strings
// ("250ms"); empty strings and absent keys leave the field unset.
type File struct {
	FlushStatistic              string  `json:"flush_statistic,omitempty" toml:"flush_statistic"`
	CallLogicFun                string  `json:"call_logic_fun,omitempty" toml:"call_logic_fun"`
	CallLogicOnNLoop            *uint64 `json:"call_logic_on_n_loop,omitempty" toml:"call_logic_on_n_loop"`
	CallSleep                   string  `json:"call_sleep,omitempty" toml:"call_sleep"`
	CallSleepOnNLoop            *uint64 `json:"call_sleep_on_n_loop,omitempty" toml:"call_sleep_on_n_loop"`
	CallSleepOnNEmptyLoopInARow *uint64 `json:"call_sleep_on_n_empty_loop_in_a_row,omitempty" toml:"call_sleep_on_n_empty_loop_in_a_row"`
}

// ErrUnknownFormat is returned by LoadFile for unrecognised extensions.
var ErrUnknownFormat = errors.New("pacing: unknown config file format")

// Config converts and validates the file form.
func (f File) Config() (Config, error) {
	var (
		c   Config
		err error
	)
	if c.FlushStatistic, err = parseDuration("flush_statistic", f.FlushStatistic); err != nil {
		return Config{}, err
	}
	if c.CallLogicFun, err = parseDuration("call_logic_fun", f.CallLogicFun); err != nil {
		return Config{}, err
	}
	if c.CallSleep, err = parseDuration("call_sleep", f.CallSleep); err != nil {
		return Config{}, err
	}
	c.CallLogicOnNLoop = cloneLoops(f.CallLogicOnNLoop)
	c.CallSleepOnNLoop = cloneLoops(f.CallSleepOnNLoop)
	c.CallSleepOnNEmptyLoopInARow = cloneLoops(f.CallSleepOnNEmptyLoopInARow)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// FileOf converts c back to its file form.
func FileOf(c Config) File {
	return File{
		FlushStatistic:              formatDuration(c.FlushStatistic),
		CallLogicFun:                formatDuration(c.CallLogicFun),
		CallLogicOnNLoop:            cloneLoops(c.CallLogicOnNLoop),
		CallSleep:                   formatDuration(c.CallSleep),
		CallSleepOnNLoop:            cloneLoops(c.CallSleepOnNLoop),
		CallSleepOnNEmptyLoopInARow: cloneLoops(c.CallSleepOnNEmptyLoopInARow),
	}
}

// Validate rejects thresholds that could never be meant: non-positive
// durations and zero loop counts.
func (c Config) Validate() error {
	for _, d := range []struct {
		name string
		v    *time.Duration
	}{
		{"flush_statistic", c.FlushStatistic},
		{"call_logic_fun", c.CallLogicFun},
		{"call_sleep", c.CallSleep},
	} {
		if d.v != nil && *d.v <= 0 {
			return fmt.Errorf("pacing: %s must be positive, got %s", d.name, *d.v)
		}
	}
	for _, n := range []struct {
		name string
		v    *uint64
	}{
		{"call_logic_on_n_loop", c.CallLogicOnNLoop},
		{"call_sleep_on_n_loop", c.CallSleepOnNLoop},
		{"call_sleep_on_n_empty_loop_in_a_row", c.CallSleepOnNEmptyLoopInARow},
	} {
		if n.v != nil && *n.v == 0 {
			return fmt.Errorf("pacing: %s must be at least 1", n.name)
		}
	}
	return nil
}

// ParseJSON decodes a JSON pacing document.
func ParseJSON(data []byte) (Config, error) {
	var f File
	if err := sonnet.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("pacing: decode json: %w", err)
	}
	return f.Config()
}

// ParseTOML decodes a TOML pacing document.
func ParseTOML(data []byte) (Config, error) {
	var f File
	if _, err := toml.Decode(string(data), &f); err != nil {
		return Config{}, fmt.Errorf("pacing: decode toml: %w", err)
	}
	return f.Config()
}

// LoadFile reads path and decodes it by extension (.json or .toml).
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pacing: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// MarshalJSON encodes c in its file form.
func (c Config) MarshalJSON() ([]byte, error) {
	return sonnet.Marshal(FileOf(c))
}

func parseDuration(name, s string) (*time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("pacing: %s: %w", name, err)
	}
	return &d, nil
}

func formatDuration(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return d.String()
}
