// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/skyhaven-space/obsw/pkg/log"
)

// LdapAuthenticator authenticates operators against a directory server and
// periodically syncs the directory's roster into the local operator store.
type LdapAuthenticator struct {
	auth         *Authentication
	config       *LdapConfig
	syncPassword string
}

var _ Authenticator = (*LdapAuthenticator)(nil)

func (la *LdapAuthenticator) Init(
	auth *Authentication,
	conf interface{}) error {

	la.auth = auth
	la.config, _ = conf.(*LdapConfig)

	la.syncPassword = os.Getenv("LDAP_ADMIN_PASSWORD")
	if la.syncPassword == "" {
		log.Warn("environment variable 'LDAP_ADMIN_PASSWORD' not set (ldap sync will not work)")
	}

	if la.config != nil && la.config.SyncInterval != "" {
		interval, err := time.ParseDuration(la.config.SyncInterval)
		if err != nil {
			log.Warnf("Could not parse duration for sync interval: %v", la.config.SyncInterval)
			return err
		}

		if interval == 0 {
			log.Info("Sync interval is zero")
			return nil
		}

		go func() {
			ticker := time.NewTicker(interval)
			for t := range ticker.C {
				log.Infof("sync started at %s", t.Format(time.RFC3339))
				if err := la.Sync(); err != nil {
					log.Errorf("sync failed: %s", err.Error())
				}
				log.Info("sync done")
			}
		}()
	}

	return nil
}

func (la *LdapAuthenticator) CanLogin(
	user *User,
	rw http.ResponseWriter,
	r *http.Request) bool {

	return user != nil && user.AuthSource == AuthViaLDAP
}

func (la *LdapAuthenticator) Login(
	user *User,
	rw http.ResponseWriter,
	r *http.Request) (*User, error) {

	l, err := la.getLdapConnection(false)
	if err != nil {
		log.Warn("Error while getting ldap connection")
		return nil, err
	}
	defer l.Close()

	userDn := strings.Replace(la.config.UserBind, "{username}", user.Username, -1)
	if err := l.Bind(userDn, r.FormValue("password")); err != nil {
		log.Error("Error while binding to ldap connection")
		return nil, err
	}

	return user, nil
}

func (la *LdapAuthenticator) Auth(
	rw http.ResponseWriter,
	r *http.Request) (*User, error) {

	return la.auth.AuthViaSession(rw, r)
}

// Sync reconciles the local operator store against the directory: entries
// new in LDAP are added as operators, entries no longer present in LDAP are
// dropped from the roster if the config requests it. There is no SQL table
// behind this anymore — auth.store is the roster.
func (la *LdapAuthenticator) Sync() error {
	existing, err := la.auth.ListUsers(false)
	if err != nil {
		log.Warn("Error while listing existing operators")
		return err
	}

	const (
		inStoreOnly = 1
		inLdapOnly  = 2
		inBoth      = 3
	)

	users := make(map[string]int, len(existing))
	for _, u := range existing {
		if u.AuthSource == AuthViaLDAP {
			users[u.Username] = inStoreOnly
		}
	}

	l, err := la.getLdapConnection(true)
	if err != nil {
		log.Error("LDAP connection error")
		return err
	}
	defer l.Close()

	ldapResults, err := l.Search(ldap.NewSearchRequest(
		la.config.UserBase, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		la.config.UserFilter, []string{"dn", "uid", "gecos"}, nil))
	if err != nil {
		log.Warn("LDAP search error")
		return err
	}

	newnames := map[string]string{}
	for _, entry := range ldapResults.Entries {
		username := entry.GetAttributeValue("uid")
		if username == "" {
			return errors.New("no attribute 'uid'")
		}

		if _, ok := users[username]; !ok {
			users[username] = inLdapOnly
			newnames[username] = entry.GetAttributeValue("gecos")
		} else {
			users[username] = inBoth
		}
	}

	for username, where := range users {
		switch {
		case where == inStoreOnly && la.config.SyncDelOldUsers:
			log.Debugf("sync: remove %v (does not show up in LDAP anymore)", username)
			if err := la.auth.DelUser(username); err != nil {
				log.Errorf("User '%s' not in LDAP anymore: removing from roster failed", username)
				return err
			}
		case where == inLdapOnly:
			name := newnames[username]
			log.Debugf("sync: add %v (name: %v, roles: [operator], ldap: true)", username, name)
			if err := la.auth.AddUser(&User{
				Username:   username,
				Name:       name,
				Roles:      []string{GetRoleString(RoleUser)},
				AuthSource: AuthViaLDAP,
			}); err != nil {
				log.Errorf("User '%s' new in LDAP: adding to roster failed", username)
				return err
			}
		}
	}

	return nil
}

// TODO: pool and reuse LDAP connections instead of dialing fresh each time.
func (la *LdapAuthenticator) getLdapConnection(admin bool) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(la.config.Url)
	if err != nil {
		log.Warn("LDAP URL dial failed")
		return nil, err
	}

	if admin {
		if err := conn.Bind(la.config.SearchDN, la.syncPassword); err != nil {
			conn.Close()
			log.Warn("LDAP connection bind failed")
			return nil, err
		}
	}

	return conn, nil
}
