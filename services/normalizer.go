package services

import (
	"strconv"
	"strings"

	"phone-tracker/models"
)

// FieldKind tells Normalize which field a piece of text came from.
type FieldKind int

const (
	FieldTitle FieldKind = iota
	FieldPrice
	FieldDistance
	FieldDescription
)

// nearbyMarker is what the site prints instead of a distance for close listings.
const nearbyMarker = "Near you"

var artifactReplacer = strings.NewReplacer("\n", "", "$", "", "<", "")

// Normalize strips newlines, the dollar sign and '<' from raw and trims it.
// For distances the "km" suffix is removed first, and "Near you" yields
// ok == false: those listings lose their distance entirely.
func Normalize(raw string, kind FieldKind) (cleaned string, ok bool) {
	if kind == FieldDistance {
		raw = strings.ReplaceAll(raw, "km", "")
		if strings.Contains(raw, nearbyMarker) {
			return "", false
		}
	}
	return strings.TrimSpace(artifactReplacer.Replace(raw)), true
}

// NormalizeRaw returns a cleaned copy of r. A nearby or missing distance
// comes back as the empty string.
func NormalizeRaw(r *models.RawListing) *models.RawListing {
	title, _ := Normalize(r.Title, FieldTitle)
	price, _ := Normalize(r.RawPrice, FieldPrice)
	description, _ := Normalize(r.Description, FieldDescription)
	distance, ok := Normalize(r.Distance, FieldDistance)
	if !ok {
		distance = ""
	}
	return &models.RawListing{
		Title:       title,
		RawPrice:    price,
		Distance:    distance,
		Description: description,
		Link:        strings.TrimSpace(r.Link),
	}
}

// parseDistance turns a cleaned distance into kilometres, nil when unparsable.
func parseDistance(s string) *float64 {
	if s == "" {
		return nil
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &d
}
