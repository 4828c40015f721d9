// host/sink.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package host

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jct32/flightstream/log"
)

// FMSDirSink writes each loaded flight plan to the simulator's FMS plans
// directory, one file per FMS index.
type FMSDirSink struct {
	Dir string
	lg  *log.Logger
}

func NewFMSDirSink(dir string, lg *log.Logger) *FMSDirSink {
	return &FMSDirSink{Dir: dir, lg: lg}
}

func (s *FMSDirSink) PlanPath(index int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("flightstream-%d.fms", index))
}

// LoadFMSFlightPlan writes route verbatim. The sink interface has no way
// to report failure, so errors are logged.
func (s *FMSDirSink) LoadFMSFlightPlan(index int, route []byte) {
	if err := s.write(index, route); err != nil {
		s.lg.Error("Unable to write flight plan", slog.Any("error", err))
		return
	}
	s.lg.Info("Flight plan written", slog.String("path", s.PlanPath(index)), slog.Int("bytes", len(route)))
}

func (s *FMSDirSink) write(index int, route []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}

	// Write to a temporary file and rename so the simulator never sees a
	// partial plan.
	path := s.PlanPath(index)
	f, err := os.CreateTemp(s.Dir, ".flightstream-*.tmp")
	if err != nil {
		return err
	}
	if _, err := f.Write(route); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}
