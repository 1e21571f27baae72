// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validate checks instance against schema. Unlike the teacher's
// validate.go, which calls cclog.Fatal on any schema error, this returns
// the error to the caller — a config validation failure during startup
// should be handled by main, not force an os.Exit from inside a library
// function.
func Validate(schema string, instance json.RawMessage) error {
	sch, err := jsonschema.CompileString("schema.json", schema)
	if err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return fmt.Errorf("config: unmarshal instance: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("config: validate: %w", err)
	}
	return nil
}
