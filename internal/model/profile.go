package model

import (
	"errors"
	"strings"
)

// UserProfile is the local-only profile captured by the welcome form. It is
// never synced remotely and only removed by an explicit reset.
type UserProfile struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	IsSetup  bool   `json:"is_setup"`
}

func (p UserProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("model: profile name is required")
	}
	return nil
}

// DisplayName prefers the nickname when one was chosen.
func (p UserProfile) DisplayName() string {
	if strings.TrimSpace(p.Nickname) != "" {
		return p.Nickname
	}
	return p.Name
}
