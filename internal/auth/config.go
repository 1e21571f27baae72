// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package auth

import "time"

// JWTAuthConfig configures the JWTAuthenticator: which cookie carries a
// cross-login token, whether an external issuer is trusted, and whether
// claims must be re-validated against the operator store.
type JWTAuthConfig struct {
	CookieName                   string        `json:"cookie-name"`
	ForceJWTValidationViaDatabase bool         `json:"validate-user"`
	TrustedExternalIssuer         string        `json:"trusted-issuer"`
	SyncUserOnLogin               bool          `json:"sync-user-on-login"`
	MaxAge                        time.Duration `json:"max-age"`
}

// LdapConfig configures the LdapAuthenticator and its background operator
// directory sync.
type LdapConfig struct {
	Url             string `json:"url"`
	UserBase        string `json:"user-base"`
	SearchDN        string `json:"search-dn"`
	UserBind        string `json:"user-bind"`
	UserFilter      string `json:"user-filter"`
	SyncInterval    string `json:"sync-interval"`
	SyncDelOldUsers bool   `json:"sync-del-old-users"`
}

// OIDCConfig configures the mission control-room single sign-on flow.
type OIDCConfig struct {
	Provider     string `json:"provider"`
	ClientID     string `json:"client-id"`
	ClientSecret string `json:"client-secret"`
	RedirectAddr string `json:"redirect-addr"`
}
