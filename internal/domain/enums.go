package domain

import (
	"strings"
	"time"
)

const (
	// MaxAccessTokenTTL is the hard ceiling on access token lifetime.
	MaxAccessTokenTTL = 5 * time.Hour
	// MaxRefreshTokenTTL is the hard ceiling on refresh token lifetime.
	MaxRefreshTokenTTL = 30 * 24 * time.Hour
)

// AuthMethod identifies how a user proves their identity to the provider.
type AuthMethod string

const (
	AuthMethodGoogle AuthMethod = "google"
	AuthMethodEmail  AuthMethod = "email"
)

// DefaultTokenType is reported when the provider omits token_type.
const DefaultTokenType = "bearer"

// Demographic value sets accepted by the profile update flow.
var (
	Genders = []string{"MALE", "FEMALE", "OTHER"}

	Religions = []string{
		"HINDU", "MUSLIM", "CHRISTIAN", "SIKH", "BUDDHIST", "JAIN", "PARSI", "JEWISH", "OTHER",
	}

	Rashis = []string{
		"MESH", "VRISHABH", "MITHUN", "KARK", "SINGH", "KANYA",
		"TULA", "VRISHCHIK", "DHANU", "MAKAR", "KUMBH", "MEEN",
	}

	MaritalStatuses = []string{"NEVER_MARRIED", "DIVORCED", "WIDOWED", "SEPARATED", "ANNULLED"}

	IndianStates = []string{
		"ANDHRA_PRADESH", "ARUNACHAL_PRADESH", "ASSAM", "BIHAR", "CHHATTISGARH", "GOA",
		"GUJARAT", "HARYANA", "HIMACHAL_PRADESH", "JHARKHAND", "KARNATAKA", "KERALA",
		"MADHYA_PRADESH", "MAHARASHTRA", "MANIPUR", "MEGHALAYA", "MIZORAM", "NAGALAND",
		"ODISHA", "PUNJAB", "RAJASTHAN", "SIKKIM", "TAMIL_NADU", "TELANGANA", "TRIPURA",
		"UTTAR_PRADESH", "UTTARAKHAND", "WEST_BENGAL", "ANDAMAN_AND_NICOBAR_ISLANDS",
		"CHANDIGARH", "DADRA_AND_NAGAR_HAVELI_AND_DAMAN_AND_DIU", "DELHI",
		"JAMMU_AND_KASHMIR", "LADAKH", "LAKSHADWEEP", "PUDUCHERRY",
	}
)

// Height bounds for the composite height attribute.
const (
	MaxHeightFeet   = 8
	MaxHeightInches = 11
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

// ParseDate parses an ISO 8601 calendar date or timestamp.
func ParseDate(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
