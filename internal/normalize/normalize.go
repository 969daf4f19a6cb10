// Package normalize holds the pure input-cleaning helpers shared by the
// order handlers: status vocabulary, HH:MM times, package classification
// and demand derivation.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Canonical order statuses.
const (
	StatusWaiting    = "waiting"
	StatusProcessing = "processing"
	StatusShipping   = "shipping"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// statusSynonyms maps localized status words to the canonical English
// keys. Both the ASCII and dotted-i spellings of "hazırlanıyor" are kept;
// old clients send either.
var statusSynonyms = map[string]string{
	"bekliyor":      StatusWaiting,
	"hazirlaniyor":  StatusProcessing,
	"hazırlanıyor":  StatusProcessing,
	"yolda":         StatusShipping,
	"teslim edildi": StatusCompleted,
	"iptal edildi":  StatusCancelled,
}

// statusWildcards are filter values that mean "no status filter".
var statusWildcards = map[string]bool{
	"tümü": true,
	"tumu": true,
	"all":  true,
}

// Status maps a raw status value to its canonical key. Empty input
// defaults to waiting; unmapped non-empty input passes through lowercased.
func Status(raw string) string {
	if raw == "" {
		return StatusWaiting
	}
	lowered := strings.ToLower(raw)
	if canonical, ok := statusSynonyms[lowered]; ok {
		return canonical
	}
	return lowered
}

// IsStatusWildcard reports whether a list filter value means "all
// statuses"; mobile clients send "Tümü".
func IsStatusWildcard(raw string) bool {
	return statusWildcards[strings.ToLower(raw)]
}

var timeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidTime reports whether s is a well-formed HH:MM clock time.
func ValidTime(s string) bool {
	return timeRegex.MatchString(s)
}

// ToMinutes converts a valid HH:MM string to minutes since midnight.
func ToMinutes(s string) int {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	hh, _ := strconv.Atoi(parts[0])
	mm, _ := strconv.Atoi(parts[1])
	return hh*60 + mm
}

// CompareTimes reports whether due is at or after ready within the day.
func CompareTimes(ready, due string) bool {
	return ToMinutes(due) >= ToMinutes(ready)
}

var packageTokens = []string{"packet", "paket", "package"}

// IsPackageProduct classifies an order as a package (parcel) order from
// its product id and name. Matching is case- and whitespace-insensitive;
// both fields empty means a standard order.
func IsPackageProduct(productID, productName string) bool {
	id := strings.ToLower(strings.TrimSpace(productID))
	name := strings.ToLower(strings.TrimSpace(productName))
	if id == "" && name == "" {
		return false
	}
	for _, token := range packageTokens {
		if strings.Contains(id, token) || strings.Contains(name, token) {
			return true
		}
	}
	return false
}

// Per-unit demand weight of the default water product. Package orders
// consume one demand unit per piece.
const demandPerUnitStandard = 19

// DeriveDemand returns the demand for an order: the explicit value when
// the client supplied a positive one, otherwise quantity times the
// per-unit weight of the order class.
func DeriveDemand(quantity int, explicit float64, isPackage bool) float64 {
	if explicit > 0 {
		return explicit
	}
	if isPackage {
		return float64(quantity)
	}
	return float64(quantity) * demandPerUnitStandard
}

const DateLayout = "2006-01-02"

// ValidDateOnly reports whether s is a well-formed YYYY-MM-DD date.
func ValidDateOnly(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// DateOnly formats t as YYYY-MM-DD in UTC.
func DateOnly(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateLayout,
}

// ParseDate leniently parses a stored date value: BSON datetimes, Go
// times and the string layouts written by current and legacy backends.
// Returns false when the value is absent or unparseable.
func ParseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, true
	case primitive.DateTime:
		return v.Time(), true
	case string:
		if v == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
