// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	"github.com/skyhaven-space/obsw/pkg/log"
)

// OIDC wires the mission single sign-on provider into the control room's
// login flow via the authorization-code-with-PKCE grant. It is not itself
// an Authenticator — a successful callback exchanges a provider identity
// for a session the way JWTAuthenticator.Auth picks up a session cookie.
type OIDC struct {
	client   *oauth2.Config
	provider *oidc.Provider
	config   OIDCConfig
}

func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setCallbackCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   int(time.Hour.Seconds()),
		Secure:   r.TLS != nil,
		HttpOnly: true,
	}
	http.SetCookie(w, c)
}

func (oa *OIDC) Init(r *mux.Router, cfg OIDCConfig) error {
	provider, err := oidc.NewProvider(context.Background(), cfg.Provider)
	if err != nil {
		return err
	}
	oa.provider = provider
	oa.config = cfg

	oa.client = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.RedirectAddr + "/oidc-callback",
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	r.HandleFunc("/oidc-login", oa.OAuth2Login)
	r.HandleFunc("/oidc-callback", oa.OAuth2Callback)

	return nil
}

func (oa *OIDC) OAuth2Callback(rw http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie("state")
	if err != nil {
		http.Error(rw, "state not found", http.StatusBadRequest)
		return
	}

	str := strings.Split(c.Value, " ")
	if len(str) != 2 {
		http.Error(rw, "malformed state cookie", http.StatusBadRequest)
		return
	}
	state := str[0]
	codeVerifier := str[1]

	_ = r.ParseForm()
	if r.Form.Get("state") != state {
		http.Error(rw, "state invalid", http.StatusBadRequest)
		return
	}
	code := r.Form.Get("code")
	if code == "" {
		http.Error(rw, "code not found", http.StatusBadRequest)
		return
	}
	token, err := oa.client.Exchange(context.Background(), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		http.Error(rw, "failed to exchange token: "+err.Error(), http.StatusInternalServerError)
		return
	}

	userInfo, err := oa.provider.UserInfo(context.Background(), oauth2.StaticTokenSource(token))
	if err != nil {
		http.Error(rw, "failed to get userinfo: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Infof("oidc login succeeded for subject %s", userInfo.Subject)
}

func (oa *OIDC) OAuth2Login(rw http.ResponseWriter, r *http.Request) {
	state, err := randString(16)
	if err != nil {
		http.Error(rw, "internal error", http.StatusInternalServerError)
		return
	}

	// PKCE protects the code exchange from interception.
	codeVerifier := oauth2.GenerateVerifier()

	setCallbackCookie(rw, r, "state", strings.Join([]string{state, codeVerifier}, " "))

	url := oa.client.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(codeVerifier))
	http.Redirect(rw, r, url, http.StatusFound)
}
