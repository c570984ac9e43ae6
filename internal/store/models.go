package store

import "time"

// RunType classifies a run
type RunType string

const (
	RunEasy     RunType = "easy"
	RunInterval RunType = "interval"
	RunLong     RunType = "long"
	RunTempo    RunType = "tempo"
)

// RunTypes lists every accepted run type
var RunTypes = []RunType{RunEasy, RunInterval, RunLong, RunTempo}

// Coordinate is a single GPS sample recorded during a run
type Coordinate struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"` // epoch milliseconds
}

// Time returns the sample timestamp as a time.Time
func (c Coordinate) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// LatLng is a position without a timestamp
type LatLng struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Run is a completed activity
type Run struct {
	ID            string       `json:"id" db:"id" bson:"_id"`
	OwnerID       string       `json:"ownerId" db:"owner_id" bson:"owner_id"`
	Date          time.Time    `json:"date" db:"date" bson:"date"`
	Distance      float64      `json:"distance" db:"distance" bson:"distance"` // km
	Duration      int          `json:"duration" db:"duration" bson:"duration"` // seconds
	Pace          string       `json:"pace" db:"pace" bson:"pace"`             // "m:ss" per km, derived
	Calories      int          `json:"calories" db:"calories" bson:"calories"`
	Type          RunType      `json:"type" db:"type" bson:"type"`
	Coordinates   []Coordinate `json:"coordinates" db:"coordinates" bson:"coordinates"`
	StartLocation *LatLng      `json:"startLocation,omitempty" db:"start_location" bson:"start_location,omitempty"`
	EndLocation   *LatLng      `json:"endLocation,omitempty" db:"end_location" bson:"end_location,omitempty"`
}

// PaceSeconds returns the average pace in seconds per km, or 0 for a zero distance
func (r Run) PaceSeconds() float64 {
	if r.Distance <= 0 {
		return 0
	}
	return float64(r.Duration) / r.Distance
}

// AchievementCategory groups achievements
type AchievementCategory string

const (
	CategoryPersonal AchievementCategory = "personal"
	CategoryFrance   AchievementCategory = "france"
	CategoryEurope   AchievementCategory = "europe"
	CategoryWorld    AchievementCategory = "world"
)

// Categories lists the achievement categories in display order
var Categories = []AchievementCategory{CategoryPersonal, CategoryFrance, CategoryEurope, CategoryWorld}

// Gender of an official record
type Gender string

const (
	GenderMen   Gender = "men"
	GenderWomen Gender = "women"
)

// Achievement is a catalog entry together with its unlock state.
// Distance is a standard distance label such as "800m"; TargetTime is the
// official threshold and stays empty for personal entries. Progress is 0-100.
type Achievement struct {
	ID          string              `json:"id" db:"id" bson:"id"`
	Title       string              `json:"title" db:"title" bson:"title"`
	Description string              `json:"description" db:"description" bson:"description"`
	Icon        string              `json:"icon" db:"icon" bson:"icon"`
	Category    AchievementCategory `json:"category" db:"category" bson:"category"`
	Gender      Gender              `json:"gender,omitempty" db:"gender" bson:"gender,omitempty"`
	Distance    string              `json:"distance" db:"distance" bson:"distance"`
	TargetTime  string              `json:"targetTime,omitempty" db:"target_time" bson:"target_time,omitempty"`
	IsUnlocked  bool                `json:"isUnlocked" db:"is_unlocked" bson:"is_unlocked"`
	UnlockedAt  *time.Time          `json:"unlockedAt,omitempty" db:"unlocked_at" bson:"unlocked_at,omitempty"`
	Progress    int                 `json:"progress" db:"progress" bson:"progress"`
}

// IsThreshold reports whether the achievement is unlocked by beating an official time
func (a Achievement) IsThreshold() bool {
	return a.Category != CategoryPersonal
}

// NotificationType classifies a reward notification
type NotificationType string

const (
	NotifyAchievement    NotificationType = "achievement"
	NotifyPersonalRecord NotificationType = "personal_record"
	NotifyMilestone      NotificationType = "milestone"
)

// RewardNotification announces a newly unlocked achievement
type RewardNotification struct {
	ID          string           `json:"id" db:"id" bson:"id"`
	Title       string           `json:"title" db:"title" bson:"title"`
	Description string           `json:"description" db:"description" bson:"description"`
	Icon        string           `json:"icon" db:"icon" bson:"icon"`
	Timestamp   time.Time        `json:"timestamp" db:"timestamp" bson:"timestamp"`
	Type        NotificationType `json:"type" db:"type" bson:"type"`
}

// Credentials holds the tokens used to reach the remote backend
type Credentials struct {
	OwnerID      string    `db:"owner_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}
