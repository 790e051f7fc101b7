// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique learner identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// RoadmapID represents a roadmap (learning path) identifier.
// Roadmap IDs are slugs, e.g. "flutter-developer" or "ui-ux-design".
type RoadmapID string

var roadmapIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,63}$`)

// IsValid checks if the roadmap ID is a valid slug.
func (r RoadmapID) IsValid() bool {
	return roadmapIDRegex.MatchString(string(r))
}

// String returns the string representation.
func (r RoadmapID) String() string {
	return string(r)
}

// IsEmpty checks if the ID is empty.
func (r RoadmapID) IsEmpty() bool {
	return r == ""
}

// NewRoadmapID creates a new RoadmapID with validation.
func NewRoadmapID(id string) (RoadmapID, error) {
	rid := RoadmapID(strings.ToLower(strings.TrimSpace(id)))
	if !rid.IsValid() {
		return "", NewDomainError("shared", "NewRoadmapID", ErrInvalidID, "invalid roadmap ID format")
	}
	return rid, nil
}

// ProgressKey identifies a single progress record: one learner on one roadmap.
// All pipeline updates for the same key must be serialized by the caller.
type ProgressKey struct {
	UserID    UserID
	RoadmapID RoadmapID
}

// String returns the canonical "user:roadmap" form used for storage keys.
func (k ProgressKey) String() string {
	return fmt.Sprintf("%s:%s", k.UserID, k.RoadmapID)
}

// IsValid checks both components.
func (k ProgressKey) IsValid() bool {
	return k.UserID.IsValid() && k.RoadmapID.IsValid()
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points earned by a learner on a roadmap.
type XP int

const (
	// XP boundaries
	MinXP XP = 0
	MaxXP XP = 1000000 // 1 million XP cap
)

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP && x <= MaxXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, capped at MaxXP.
// XP is monotonic: negative amounts are ignored.
func (x XP) Add(amount int) XP {
	if amount < 0 {
		return x
	}
	result := XP(int(x) + amount)
	if result > MaxXP {
		return MaxXP
	}
	return result
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, NewDomainError("shared", "NewXP", ErrNegativeValue, "XP cannot be negative")
	}
	if amount > int(MaxXP) {
		return MaxXP, nil // Cap at max
	}
	return XP(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Percentage Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percentage represents a score in [0, 100].
type Percentage float64

// IsValid checks if the percentage is within range.
func (p Percentage) IsValid() bool {
	return p >= 0 && p <= 100
}

// Float64 returns the underlying float64 value.
func (p Percentage) Float64() float64 {
	return float64(p)
}

// AtLeast reports whether the percentage meets the given bar.
func (p Percentage) AtLeast(bar float64) bool {
	return float64(p) >= bar
}

// String formats the percentage with one decimal place.
func (p Percentage) String() string {
	return fmt.Sprintf("%.1f%%", float64(p))
}

// NewPercentage creates a Percentage from a score/total pair.
// A zero total yields 0 rather than an error: empty units score nothing.
func NewPercentage(score, total float64) Percentage {
	if total <= 0 {
		return 0
	}
	p := Percentage(score / total * 100)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// ═══════════════════════════════════════════════════════════════════════════
// Calendar Day Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Day represents a calendar day with no time-of-day component.
// Heatmap entries and streak arithmetic operate on Days, never on instants,
// so that same-day events always collapse onto one entry.
type Day struct {
	t time.Time
}

// NewDay truncates an instant to the calendar day in the given location.
func NewDay(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return Day{t: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)}
}

// DayFromDate builds a Day directly from year/month/day.
func DayFromDate(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Time returns the midnight-UTC representation of the day.
func (d Day) Time() time.Time {
	return d.t
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// Equal reports whether two days are the same calendar day.
func (d Day) Equal(other Day) bool {
	return d.t.Equal(other.t)
}

// Before reports whether d is an earlier day than other.
func (d Day) Before(other Day) bool {
	return d.t.Before(other.t)
}

// After reports whether d is a later day than other.
func (d Day) After(other Day) bool {
	return d.t.After(other.t)
}

// AddDays returns the day shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// DaysSince returns the whole-day distance from other to d.
func (d Day) DaysSince(other Day) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return d.t.Format("2006-01-02")
}

// ParseDay parses a YYYY-MM-DD string into a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Day{}, WrapError("shared", "ParseDay", ErrInvalidFormat, "day must be YYYY-MM-DD", err)
	}
	return Day{t: t}, nil
}
