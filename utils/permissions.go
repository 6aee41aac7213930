package utils

import "strings"

// MatchesPermission checks a granted permission against a required one.
// Permissions are "resource:action"; either part of the granted permission
// may be "*":
//
//   - "*:*" or "*" grants everything
//   - "workorder:*" grants every action on work orders
//   - "*:read" grants read on every resource
func MatchesPermission(granted, required string) bool {
	if granted == required {
		return true
	}
	if granted == "*" || granted == "*:*" {
		return true
	}

	gRes, gAct, ok := strings.Cut(granted, ":")
	if !ok {
		return false
	}
	rRes, rAct, ok := strings.Cut(required, ":")
	if !ok {
		return false
	}
	return (gRes == "*" || gRes == rRes) && (gAct == "*" || gAct == rAct)
}

// HasPermission reports whether any granted permission matches required.
func HasPermission(granted []string, required string) bool {
	for _, g := range granted {
		if MatchesPermission(g, required) {
			return true
		}
	}
	return false
}
