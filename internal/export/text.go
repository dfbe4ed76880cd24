// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/leadcam/internal/platform"
	"golang.org/x/text/language"
)

// MapsURL links to the coordinates on a map.
func MapsURL(lat, lon float64) string {
	return "https://maps.google.com/maps?q=" +
		strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

// ShareText composes the descriptive text attached to a shared recording.
// The form section appears only when a field is filled in and the location
// section only when a fix is present.
func ShareText(meta Metadata, tag language.Tag) string {
	if meta.Text != "" {
		return meta.Text
	}
	c := catalogFor(tag)
	var b strings.Builder
	b.WriteString(c.tagline)

	if !meta.Form.Empty() {
		b.WriteString("\n\n")
		b.WriteString(c.form)
		writeField(&b, c.parent, meta.Form.ParentName)
		writeField(&b, c.child, meta.Form.ChildName)
		writeField(&b, c.age, meta.Form.Age)
	}

	if loc := meta.Location; loc != nil {
		b.WriteString("\n\n")
		b.WriteString(c.location)
		if loc.Address != "" {
			b.WriteString("\n")
			b.WriteString(loc.Address)
		}
		fmt.Fprintf(&b, "\n%s: %.6f, %.6f", c.coords, loc.Latitude, loc.Longitude)
		fmt.Fprintf(&b, "\n%s: %s", c.mapLink, MapsURL(loc.Latitude, loc.Longitude))
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "\n%s: %s", label, value)
}

// ShareTitle returns meta.Title or the catalog default.
func ShareTitle(meta Metadata, tag language.Tag) string {
	if meta.Title != "" {
		return meta.Title
	}
	return catalogFor(tag).title
}

// LeadSummary renders the plain-text lead record saved alongside the video.
func LeadSummary(form Form, loc *Location, now time.Time, tag language.Tag) string {
	c := catalogFor(tag)
	var b strings.Builder
	b.WriteString(c.leadHeading)
	fmt.Fprintf(&b, "\n%s: %s", c.created, now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "\n%s: %s", c.parent, orDash(form.ParentName))
	fmt.Fprintf(&b, "\n%s: %s", c.child, orDash(form.ChildName))
	fmt.Fprintf(&b, "\n%s: %s", c.age, orDash(form.Age))
	if loc != nil {
		b.WriteString("\n")
		b.WriteString(c.location)
		if loc.Address != "" {
			b.WriteString(" ")
			b.WriteString(loc.Address)
		}
		fmt.Fprintf(&b, "\n%s: %.6f, %.6f", c.coords, loc.Latitude, loc.Longitude)
	}
	b.WriteString("\n")
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Instructions returns the manual steps shown after every strategy failed.
// Video MIME types get video wording; anything else is called a file.
func Instructions(family platform.Family, tag language.Tag, filename, mimeType string) string {
	c := catalogFor(tag)
	if isVideo(mimeType) {
		return pick(c.manual, family, filename)
	}
	return pick(c.fileManual, family, filename)
}

// SaveInstructions returns the steps that complete a save opened in a new
// browsing context.
func SaveInstructions(family platform.Family, tag language.Tag, filename, mimeType string) string {
	c := catalogFor(tag)
	if isVideo(mimeType) {
		return pick(c.save, family, filename)
	}
	return pick(c.fileSave, family, filename)
}

func isVideo(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "video/")
}

func pick(m map[platform.Family]string, family platform.Family, filename string) string {
	tmpl, ok := m[family]
	if !ok {
		tmpl = m[platform.FamilyDesktop]
	}
	return fmt.Sprintf(tmpl, filename)
}
