// log/race.go
// Copyright(c) 2025 vice contributors, licensed under the GNU Public License, Version 3.
// Copyright(c) 2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build race

package log

// RaceEnabled is true when the race detector is active.
const RaceEnabled = true
