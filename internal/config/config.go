// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the TMTC backbone's mission
// configuration: network addresses, packet pool sizing, verification
// reporter identity, scheduler margin, and the authenticator sections
// consumed by internal/auth.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/skyhaven-space/obsw/internal/auth"
	"github.com/skyhaven-space/obsw/pkg/log"
)

// Config is the whole of the mission configuration file.
type Config struct {
	Addr              string `json:"addr"`
	TmtcAddr          string `json:"tmtc-addr"`
	Apid              uint16 `json:"apid"`
	DestID            uint16 `json:"dest-id"`
	PoolBucketSizes   []int  `json:"pool-bucket-sizes"`
	PoolBucketCap     int    `json:"pool-bucket-capacity"`
	SchedulerMargin   int64  `json:"scheduler-margin"`
	SessionMaxAge     string `json:"session-max-age"`
	TcIngressRate     int    `json:"tc-ingress-rate"`
	TcIngressBurst    int    `json:"tc-ingress-burst"`

	JWT  *auth.JWTAuthConfig `json:"jwt"`
	LDAP *auth.LdapConfig    `json:"ldap"`
	OIDC *auth.OIDCConfig    `json:"oidc"`

	NatsURL           string `json:"nats-url"`
	NatsSubjectPrefix string `json:"nats-subject-prefix"`
}

// Keys holds the process-wide configuration, populated by Load. Defaults
// match a single-board, single-mission deployment; everything else must
// come from the config file or environment.
var Keys = Config{
	Addr:            ":8080",
	TmtcAddr:        ":14570",
	PoolBucketSizes: []int{64, 256, 1024, 4096},
	PoolBucketCap:   64,
	SchedulerMargin: 1,
	SessionMaxAge:   "24h",
	TcIngressRate:   50,
	TcIngressBurst:  100,
}

// Load reads .env overrides (if present) then the JSON config file at
// path, validating it against configSchema before decoding into Keys.
// A missing config file is not an error — Keys keeps its defaults.
func Load(path string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("config: load .env: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("config: %q not found, using defaults", path)
			return nil
		}
		return fmt.Errorf("config: read %q: %w", path, err)
	}

	if err := Validate(configSchema, raw); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		return fmt.Errorf("config: decode %q: %w", path, err)
	}

	if Keys.Apid == 0 {
		return fmt.Errorf("config: 'apid' must be nonzero")
	}

	return nil
}

// AuthConfigs adapts Keys' auth sections into the map shape
// auth.Init expects.
func (c *Config) AuthConfigs() map[string]interface{} {
	configs := map[string]interface{}{
		"jwt": c.JWT,
	}
	if c.LDAP != nil {
		configs["ldap"] = c.LDAP
	}
	return configs
}
