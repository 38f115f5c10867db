package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/reactive/engine"
	"github.com/tailored-agentic-units/reactive/event"
	"github.com/tailored-agentic-units/reactive/observed"
	"github.com/tailored-agentic-units/reactive/rangediff"
)

var (
	errUnknownOp  = errors.New("unknown op")
	errOutOfRange = errors.New("step out of range")
	errNoValues   = errors.New("step needs values")
)

// Script is a mutation sequence replayed against an observed slice.
type Script struct {
	Initial []string `json:"initial" yaml:"initial"`
	Steps   []Step   `json:"steps" yaml:"steps"`
}

// Step is one mutation. At is an index, Count a width (erase) or a target
// length (resize).
type Step struct {
	Op     string   `json:"op" yaml:"op"`
	At     int      `json:"at,omitempty" yaml:"at,omitempty"`
	Count  int      `json:"count,omitempty" yaml:"count,omitempty"`
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
}

func (st Step) String() string {
	var b strings.Builder
	b.WriteString(st.Op)
	switch st.Op {
	case "insert", "erase", "set":
		fmt.Fprintf(&b, " at=%d", st.At)
	case "resize":
		fmt.Fprintf(&b, " size=%d", st.Count)
	}
	if st.Op == "erase" {
		fmt.Fprintf(&b, " count=%d", max(st.Count, 1))
	}
	if len(st.Values) > 0 {
		fmt.Fprintf(&b, " values=%v", st.Values)
	}
	return b.String()
}

// LoadScript reads a JSON or YAML script, chosen by extension.
func LoadScript(filename string) (*Script, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var script Script
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		err = json.Unmarshal(data, &script)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &script)
	default:
		return nil, fmt.Errorf("script extension %q: %w", ext, engine.ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return &script, nil
}

// Apply performs the step on s. Flush steps are handled by the tracer.
func (st Step) Apply(s *observed.Slice[string]) error {
	n := s.Len()
	switch st.Op {
	case "insert":
		if st.At < 0 || st.At > n {
			return fmt.Errorf("insert at %d of %d: %w", st.At, n, errOutOfRange)
		}
		if len(st.Values) == 0 {
			return fmt.Errorf("insert: %w", errNoValues)
		}
		s.Insert(st.At, st.Values...)
	case "push_back", "push_front":
		if len(st.Values) == 0 {
			return fmt.Errorf("%s: %w", st.Op, errNoValues)
		}
		if st.Op == "push_back" {
			s.PushBack(st.Values...)
		} else {
			s.PushFront(st.Values...)
		}
	case "pop_back":
		s.PopBack()
	case "pop_front":
		s.PopFront()
	case "erase":
		count := max(st.Count, 1)
		if st.At < 0 || st.At+count > n {
			return fmt.Errorf("erase [%d,%d) of %d: %w", st.At, st.At+count, n, errOutOfRange)
		}
		s.EraseRange(st.At, st.At+count)
	case "set":
		if len(st.Values) == 0 {
			return fmt.Errorf("set: %w", errNoValues)
		}
		if st.At < 0 || st.At+len(st.Values) > n {
			return fmt.Errorf("set [%d,%d) of %d: %w", st.At, st.At+len(st.Values), n, errOutOfRange)
		}
		for i, v := range st.Values {
			s.At(st.At + i).Set(v)
		}
	case "assign":
		s.Assign(st.Values)
	case "clear":
		s.Clear()
	case "resize":
		if st.Count < 0 {
			return fmt.Errorf("resize to %d: %w", st.Count, errOutOfRange)
		}
		s.Resize(st.Count)
	default:
		return fmt.Errorf("%q: %w", st.Op, errUnknownOp)
	}
	return nil
}

// Report summarizes a replay.
type Report struct {
	Steps   int
	Flushes int
	Updates int
	InSync  bool
}

// tracer keeps a mirror of the slice from range updates only and prints
// every committed epoch.
type tracer struct {
	out     io.Writer
	mirror  []string
	updates int
}

func (t *tracer) onUpdate(u observed.RangeUpdate[string]) {
	t.updates++
	t.mirror = u.Apply(t.mirror)

	if u.Full {
		fmt.Fprintf(t.out, "  update %d: full %v\n", t.updates, t.mirror)
		return
	}
	parts := make([]string, 0, len(u.Ranges))
	for _, r := range u.Ranges {
		parts = append(parts, rangediff.Interval{Low: r.Low, High: r.High}.String())
	}
	fmt.Fprintf(t.out, "  update %d: %s %s\n", t.updates, u.Type, strings.Join(parts, " "))
}

// Replay runs script against a fresh slice of e and reports whether the
// mirror built from range updates matches the slice at every flush.
func Replay(e *engine.Engine, script *Script, out io.Writer) (Report, error) {
	s := engine.NewSlice(e, script.Initial)
	t := &tracer{out: out}
	s.ListenRanges(event.Token{}, t.onUpdate)

	report := Report{InSync: true}
	flush := func(label string) {
		e.Flush()
		report.Flushes++
		ok := slices.Equal(t.mirror, s.Values())
		report.InSync = report.InSync && ok
		fmt.Fprintf(out, "%s: len=%d in_sync=%v\n", label, s.Len(), ok)
	}

	flush("initial")
	for i, step := range script.Steps {
		if step.Op == "flush" {
			flush(fmt.Sprintf("step %d flush", i+1))
			continue
		}
		if err := step.Apply(s); err != nil {
			return report, fmt.Errorf("step %d: %w", i+1, err)
		}
		report.Steps++
		fmt.Fprintf(out, "step %d %s: pending=%s ranges=%d\n", i+1, step, s.RangeContext().Type(), s.RangeContext().Len())
	}
	flush("final")

	report.Updates = t.updates
	return report, nil
}
