// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

// configSchema validates the top-level mission configuration file:
// listen address, packet pool sizing, verification reporter identity,
// scheduler margin and the other properties below. internal/auth's own
// configSchema is not applied here or anywhere else.
var configSchema = `
{
  "type": "object",
  "properties": {
    "addr": {
      "description": "Address the control-plane REST API listens on (e.g. ':8080').",
      "type": "string"
    },
    "tmtc-addr": {
      "description": "Address the framed TCP TMTC server listens on (e.g. ':14570').",
      "type": "string"
    },
    "apid": {
      "description": "The TM APID this spacecraft application reports under.",
      "type": "integer"
    },
    "dest-id": {
      "description": "Default TM destination id used by the verification reporter.",
      "type": "integer"
    },
    "pool-bucket-sizes": {
      "description": "Slot sizes (bytes) offered by the shared packet pool, ascending.",
      "type": "array",
      "items": {"type": "integer"}
    },
    "pool-bucket-capacity": {
      "description": "Number of slots per bucket in the shared packet pool.",
      "type": "integer"
    },
    "scheduler-margin": {
      "description": "Scheduler insert rejection margin, in seconds relative to current time.",
      "type": "integer"
    },
    "tc-ingress-rate": {
      "description": "Sustained telecommands-per-second the distributor admits; a rejected telecommand's already-allocated pool slot is freed.",
      "type": "integer"
    },
    "tc-ingress-burst": {
      "description": "Burst size above tc-ingress-rate the distributor's token bucket tolerates.",
      "type": "integer"
    },
    "session-max-age": {
      "description": "How long an operator session is valid, as a string parsable by time.ParseDuration(). Empty means sessions never expire.",
      "type": "string"
    },
    "jwt": {
      "type": "object"
    },
    "ldap": {
      "type": "object"
    },
    "oidc": {
      "type": "object"
    },
    "nats-url": {
      "description": "URL of the mission NATS bus events are relayed onto.",
      "type": "string"
    },
    "nats-subject-prefix": {
      "description": "Subject prefix events and HK samples are published under.",
      "type": "string"
    }
  },
  "required": ["addr", "tmtc-addr", "apid"]
}`
