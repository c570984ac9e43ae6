package remote

import (
	"time"

	"stride/internal/store"
)

// runRow is a row of the runs table
type runRow struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	Date          time.Time          `json:"date"`
	Distance      float64            `json:"distance"`
	Duration      int                `json:"duration"`
	Pace          string             `json:"pace"`
	Calories      int                `json:"calories"`
	Type          string             `json:"type"`
	Coordinates   []store.Coordinate `json:"coordinates"`
	StartLocation *store.LatLng      `json:"start_location"`
	EndLocation   *store.LatLng      `json:"end_location"`
}

func toRunRow(r store.Run) runRow {
	coords := r.Coordinates
	if coords == nil {
		coords = []store.Coordinate{}
	}
	return runRow{
		ID:            r.ID,
		UserID:        r.OwnerID,
		Date:          r.Date,
		Distance:      r.Distance,
		Duration:      r.Duration,
		Pace:          r.Pace,
		Calories:      r.Calories,
		Type:          string(r.Type),
		Coordinates:   coords,
		StartLocation: r.StartLocation,
		EndLocation:   r.EndLocation,
	}
}

func (row runRow) run() store.Run {
	return store.Run{
		ID:            row.ID,
		OwnerID:       row.UserID,
		Date:          row.Date,
		Distance:      row.Distance,
		Duration:      row.Duration,
		Pace:          row.Pace,
		Calories:      row.Calories,
		Type:          store.RunType(row.Type),
		Coordinates:   row.Coordinates,
		StartLocation: row.StartLocation,
		EndLocation:   row.EndLocation,
	}
}

// achievementRow is a row of the achievements table
type achievementRow struct {
	UserID        string     `json:"user_id"`
	AchievementID string     `json:"achievement_id"`
	Position      int        `json:"position"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon"`
	Category      string     `json:"category"`
	Gender        string     `json:"gender,omitempty"`
	Distance      string     `json:"distance"`
	TargetTime    string     `json:"target_time,omitempty"`
	IsUnlocked    bool       `json:"is_unlocked"`
	UnlockedAt    *time.Time `json:"unlocked_at"`
	Progress      int        `json:"progress"`
}

func toAchievementRow(owner string, pos int, a store.Achievement) achievementRow {
	return achievementRow{
		UserID:        owner,
		AchievementID: a.ID,
		Position:      pos,
		Title:         a.Title,
		Description:   a.Description,
		Icon:          a.Icon,
		Category:      string(a.Category),
		Gender:        string(a.Gender),
		Distance:      a.Distance,
		TargetTime:    a.TargetTime,
		IsUnlocked:    a.IsUnlocked,
		UnlockedAt:    a.UnlockedAt,
		Progress:      a.Progress,
	}
}

func (row achievementRow) achievement() store.Achievement {
	return store.Achievement{
		ID:          row.AchievementID,
		Title:       row.Title,
		Description: row.Description,
		Icon:        row.Icon,
		Category:    store.AchievementCategory(row.Category),
		Gender:      store.Gender(row.Gender),
		Distance:    row.Distance,
		TargetTime:  row.TargetTime,
		IsUnlocked:  row.IsUnlocked,
		UnlockedAt:  row.UnlockedAt,
		Progress:    row.Progress,
	}
}

// notificationRow is a row of the notifications table
type notificationRow struct {
	UserID         string    `json:"user_id"`
	NotificationID string    `json:"notification_id"`
	Position       int       `json:"position"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Icon           string    `json:"icon"`
	Type           string    `json:"type"`
	CreatedAt      time.Time `json:"created_at"`
}

func toNotificationRow(owner string, pos int, n store.RewardNotification) notificationRow {
	return notificationRow{
		UserID:         owner,
		NotificationID: n.ID,
		Position:       pos,
		Title:          n.Title,
		Description:    n.Description,
		Icon:           n.Icon,
		Type:           string(n.Type),
		CreatedAt:      n.Timestamp,
	}
}

func (row notificationRow) notification() store.RewardNotification {
	return store.RewardNotification{
		ID:          row.NotificationID,
		Title:       row.Title,
		Description: row.Description,
		Icon:        row.Icon,
		Type:        store.NotificationType(row.Type),
		Timestamp:   row.CreatedAt,
	}
}
