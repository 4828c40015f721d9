// plugin/identity.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plugin

import (
	"github.com/jct32/flightstream/log"
	"github.com/jct32/flightstream/util"
)

// Identity holds the current SimBrief username. It has its own lock so
// that updating the username never waits on a download and vice versa.
// A download captures the username when it starts, so changing it
// mid-download affects only the next one.
type Identity struct {
	mu       util.LoggingMutex
	username string
	lg       *log.Logger
}

func NewIdentity(lg *log.Logger) *Identity {
	id := &Identity{lg: lg}
	id.mu.Name = "identity"
	return id
}

func (id *Identity) Get() string {
	id.mu.Lock(id.lg)
	defer id.mu.Unlock(id.lg)

	return id.username
}

func (id *Identity) Set(username string) {
	id.mu.Lock(id.lg)
	defer id.mu.Unlock(id.lg)

	id.username = username
}
