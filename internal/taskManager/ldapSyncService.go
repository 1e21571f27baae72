// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package taskManager

import (
	"time"

	"github.com/skyhaven-space/obsw/internal/auth"
	"github.com/skyhaven-space/obsw/pkg/log"
	"github.com/go-co-op/gocron/v2"
)

// RegisterLdapSyncService schedules a periodic resync of the ground-segment
// operator roster against the directory server, via whichever
// Authentication instance was set up by auth.Init.
func RegisterLdapSyncService(ds string) {
	interval, err := parseDuration(ds)
	if err != nil {
		log.Warnf("Could not parse duration for sync interval: %v",
			ds)
		return
	}

	a := auth.GetAuthInstance()
	if a == nil || a.LdapAuth == nil {
		log.Warn("LDAP sync service requested but LDAP authentication is not configured")
		return
	}

	log.Info("Register LDAP sync service")
	s.NewJob(gocron.DurationJob(interval),
		gocron.NewTask(
			func() {
				t := time.Now()
				log.Infof("ldap sync started at %s", t.Format(time.RFC3339))
				if err := a.LdapAuth.Sync(); err != nil {
					log.Errorf("ldap sync failed: %s", err.Error())
				}
				log.Info("ldap sync done")
			}))
}
