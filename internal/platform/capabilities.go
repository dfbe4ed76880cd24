// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package platform

import "strings"

// Family groups platforms that need the same manual instructions.
type Family string

const (
	FamilyIOS     Family = "ios"
	FamilyAndroid Family = "android"
	FamilyDesktop Family = "desktop"
	FamilyUnknown Family = "unknown"
)

// ParseFamily maps a configured value to a Family.
func ParseFamily(s string) Family {
	switch Family(strings.ToLower(strings.TrimSpace(s))) {
	case FamilyIOS:
		return FamilyIOS
	case FamilyAndroid:
		return FamilyAndroid
	case FamilyDesktop:
		return FamilyDesktop
	default:
		return FamilyUnknown
	}
}

// Mobile reports whether the family is a phone/tablet platform.
func (f Family) Mobile() bool {
	return f == FamilyIOS || f == FamilyAndroid
}

// FamilyFromUserAgent is the single place a user-agent string is inspected.
// Everything else consults Capabilities.
func FamilyFromUserAgent(ua string) Family {
	switch {
	case ua == "":
		return FamilyUnknown
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"), strings.Contains(ua, "iPod"):
		return FamilyIOS
	case strings.Contains(ua, "Android"):
		return FamilyAndroid
	default:
		return FamilyDesktop
	}
}

// Capabilities is resolved once when the platform is constructed.
type Capabilities struct {
	Family                 Family
	CanShareFiles          bool
	CanUseFileSystemAccess bool
	CanOpenWindow          bool
	CanDownload            bool
}
