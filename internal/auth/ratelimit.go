// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginAttemptsBurst and loginWindow bound how many login attempts one
// (ip, username) pair may make before being throttled — a failed/compromised
// ground terminal shouldn't be able to hammer the command uplink's login
// endpoint.
const (
	loginAttemptsBurst = 5
	loginWindow        = time.Minute
)

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	rateLimiterMu sync.Mutex
	rateLimiters  = map[string]*rateLimiterEntry{}
)

// getIPUserLimiter returns the shared rate.Limiter for this (ip, username)
// pair, creating it on first use.
func getIPUserLimiter(ip, username string) *rate.Limiter {
	key := ip + "|" + username

	rateLimiterMu.Lock()
	defer rateLimiterMu.Unlock()

	entry, ok := rateLimiters[key]
	if !ok {
		entry = &rateLimiterEntry{
			limiter: rate.NewLimiter(rate.Every(loginWindow/loginAttemptsBurst), loginAttemptsBurst),
		}
		rateLimiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanupOldRateLimiters drops every limiter not seen since before cutoff,
// so the map doesn't grow without bound as terminals come and go.
func cleanupOldRateLimiters(cutoff time.Time) {
	rateLimiterMu.Lock()
	defer rateLimiterMu.Unlock()

	for key, entry := range rateLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rateLimiters, key)
		}
	}
}
