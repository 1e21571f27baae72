// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package auth

import (
	"fmt"

	"github.com/skyhaven-space/obsw/pkg/log"
	"golang.org/x/crypto/bcrypt"
)

func (auth *Authentication) GetUser(username string) (*User, error) {
	return auth.store.get(username)
}

func (auth *Authentication) AddUser(user *User) error {
	if user.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.Password = string(hashed)
	}

	if err := auth.store.add(user); err != nil {
		return err
	}

	log.Infof("new user %#v created (roles: %v, auth-source: %d)", user.Username, user.Roles, user.AuthSource)
	return nil
}

func (auth *Authentication) DelUser(username string) error {
	return auth.store.del(username)
}

func (auth *Authentication) ListUsers(specialsOnly bool) ([]*User, error) {
	return auth.store.list(specialsOnly), nil
}

func (auth *Authentication) AddRole(username string, role string) error {
	user, err := auth.GetUser(username)
	if err != nil {
		return err
	}

	if role != GetRoleString(RoleAdmin) && role != GetRoleString(RoleApi) && role != GetRoleString(RoleUser) && role != GetRoleString(RoleSupport) {
		return fmt.Errorf("invalid user role: %#v", role)
	}

	for _, r := range user.Roles {
		if r == role {
			return fmt.Errorf("user %#v already has role %#v", username, role)
		}
	}

	return auth.store.setRoles(username, append(user.Roles, role))
}

func (auth *Authentication) RemoveRole(username string, role string) error {
	user, err := auth.GetUser(username)
	if err != nil {
		return err
	}

	if role != GetRoleString(RoleAdmin) && role != GetRoleString(RoleApi) && role != GetRoleString(RoleUser) {
		return fmt.Errorf("invalid user role: %#v", role)
	}

	var exists bool
	var newroles []string
	for _, r := range user.Roles {
		if r != role {
			newroles = append(newroles, r)
		} else {
			exists = true
		}
	}

	if !exists {
		return fmt.Errorf("user %#v already does not have role %#v", username, role)
	}

	return auth.store.setRoles(username, newroles)
}
