// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package taskManager runs the ground-segment's periodic maintenance jobs
// on a single gocron scheduler — currently just the operator-roster LDAP
// resync. internal/housekeeping owns the mission's own periodic sampling
// jobs; this package is for operational upkeep of the control plane itself.
package taskManager

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/skyhaven-space/obsw/pkg/log"
)

var s gocron.Scheduler

func parseDuration(ds string) (time.Duration, error) {
	interval, err := time.ParseDuration(ds)
	if err != nil {
		log.Warnf("Could not parse duration for sync interval: %v", ds)
		return 0, err
	}

	if interval == 0 {
		log.Info("TaskManager: sync interval is zero")
	}

	return interval, nil
}

// Start creates the scheduler and registers every configured maintenance
// job. ldapSyncInterval is empty when no LDAP authenticator is configured.
func Start(ldapSyncInterval string) error {
	var err error
	s, err = gocron.NewScheduler()
	if err != nil {
		return err
	}

	if ldapSyncInterval != "" {
		RegisterLdapSyncService(ldapSyncInterval)
	}

	s.Start()
	return nil
}

func Shutdown() error {
	if s == nil {
		return nil
	}
	return s.Shutdown()
}
