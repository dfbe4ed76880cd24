// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package platform

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFamilyFromUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Family
	}{
		{"empty", "", FamilyUnknown},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", FamilyIOS},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X)", FamilyIOS},
		{"android", "Mozilla/5.0 (Linux; Android 14; Pixel 8)", FamilyAndroid},
		{"desktop", "Mozilla/5.0 (X11; Linux x86_64)", FamilyDesktop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FamilyFromUserAgent(tt.ua))
		})
	}
}

func TestParseFamily(t *testing.T) {
	assert.Equal(t, FamilyIOS, ParseFamily(" iOS "))
	assert.Equal(t, FamilyAndroid, ParseFamily("android"))
	assert.Equal(t, FamilyUnknown, ParseFamily("palm"))
	assert.True(t, FamilyAndroid.Mobile())
	assert.False(t, FamilyDesktop.Mobile())
}

func TestFacingModeOpposite(t *testing.T) {
	assert.Equal(t, FacingUser, FacingEnvironment.Opposite())
	assert.Equal(t, FacingEnvironment, FacingUser.Opposite())
	assert.Equal(t, FacingEnvironment, FacingMode("").Opposite())
}

func TestErrorName(t *testing.T) {
	err := fmt.Errorf("acquire: %w", NewMediaError(NameNotFound, "no camera"))
	assert.Equal(t, NameNotFound, ErrorName(err))
	assert.Equal(t, "", ErrorName(fmt.Errorf("plain")))
	assert.True(t, IsAbort(NewMediaError(NameAbort, "")))
	assert.Equal(t, "NotFoundError: no camera", NewMediaError(NameNotFound, "no camera").Error())
}
