// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package auth

import (
	"errors"
	"sync"
)

// ErrUserNotFound is returned by the operator store in place of the
// teacher's sql.ErrNoRows — there is no database backing this module, only
// the in-memory roster of ground-segment operators.
var ErrUserNotFound = errors.New("auth: user not found")

// userStore is a mutex-guarded roster of operator accounts. OBSW has no
// SQL database: the set of operators who may command the spacecraft is
// small and provisioned at deployment time, so an in-memory map replaces
// the teacher's sqlx/squirrel-backed user table.
type userStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

func newUserStore() *userStore {
	return &userStore{users: make(map[string]*User)}
}

func (s *userStore) get(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp, nil
}

func (s *userStore) add(user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return errors.New("auth: user already exists")
	}
	cp := *user
	cp.Roles = append([]string(nil), user.Roles...)
	s.users[user.Username] = &cp
	return nil
}

func (s *userStore) del(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; !exists {
		return ErrUserNotFound
	}
	delete(s.users, username)
	return nil
}

func (s *userStore) list(specialsOnly bool) []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		if specialsOnly && (len(u.Roles) == 0 || (len(u.Roles) == 1 && u.Roles[0] == GetRoleString(RoleUser))) {
			continue
		}
		cp := *u
		cp.Roles = append([]string(nil), u.Roles...)
		out = append(out, &cp)
	}
	return out
}

func (s *userStore) setRoles(username string, roles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return ErrUserNotFound
	}
	u.Roles = append([]string(nil), roles...)
	return nil
}
