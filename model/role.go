package model

import (
	"errors"
	"strings"
)

type Role string

const (
	RoleScheduler Role = "scheduler"
	RoleWebserver Role = "webserver"
)

var ErrUnknownRole = errors.New("unknown role")

// Roles lists every role an image can be published for.
func Roles() []Role {
	return []Role{RoleScheduler, RoleWebserver}
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles() {
		if r == known {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

func (r Role) String() string {
	return string(r)
}
