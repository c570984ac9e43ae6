package service

import "stride/internal/store"

const (
	// MaxNotifications caps the notification log
	MaxNotifications = 10

	// TrendPeriods is the default number of periods in a trend
	TrendPeriods = 12

	// ProgressComplete is the progress of an unlocked achievement
	ProgressComplete = 100

	// NotificationIcon is shown on personal record notifications
	NotificationIcon = "🏆"
)

// categoryInfo holds the display label and icon of an achievement category
type categoryInfo struct {
	Label  string
	Record string // "World record"
	Phrase string // "world record", as used mid-sentence
	Icon   string
}

var categories = map[store.AchievementCategory]categoryInfo{
	store.CategoryPersonal: {Label: "Personal", Record: "Personal record", Phrase: "personal record", Icon: "🏃‍♂️"},
	store.CategoryFrance:   {Label: "France", Record: "French record", Phrase: "French record", Icon: "🇫🇷"},
	store.CategoryEurope:   {Label: "Europe", Record: "European record", Phrase: "European record", Icon: "🇪🇺"},
	store.CategoryWorld:    {Label: "World", Record: "World record", Phrase: "world record", Icon: "🌍"},
}

// CategoryLabel returns the display label of a category
func CategoryLabel(c store.AchievementCategory) string {
	if info, ok := categories[c]; ok {
		return info.Label
	}
	return string(c)
}
