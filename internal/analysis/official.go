package analysis

import (
	"time"

	"stride/internal/racetime"
	"stride/internal/store"
)

// OfficialRecord is a track record used as an achievement threshold
type OfficialRecord struct {
	Category store.AchievementCategory
	Gender   store.Gender
	Distance string
	Time     string
	Athlete  string
	Country  string
	Location string
	Year     string
}

// Elapsed returns the record time as a duration
func (r OfficialRecord) Elapsed() time.Duration {
	return racetime.MustParse(r.Time)
}

// OfficialRecords lists the threshold records per category and gender
var OfficialRecords = []OfficialRecord{
	{store.CategoryFrance, store.GenderMen, "100m", "9.86", "Jimmy Vicaut", "France", "Montreuil / Saint-Denis", "2016 / 2015"},
	{store.CategoryFrance, store.GenderMen, "400m", "44.46", "Leslie Djhone", "France", "Osaka", "2007"},
	{store.CategoryFrance, store.GenderMen, "800m", "1:41.61", "Gabriel Tual", "France", "Paris", "2024"},
	{store.CategoryFrance, store.GenderWomen, "100m", "10.73", "Christine Arron", "France", "Budapest", "1998"},
	{store.CategoryFrance, store.GenderWomen, "400m", "48.25", "Marie-José Pérec", "France", "Atlanta", "1996"},
	{store.CategoryFrance, store.GenderWomen, "800m", "1:56.53", "Patricia Djate-Taillard", "France", "Monte-Carlo", "1995"},

	{store.CategoryEurope, store.GenderMen, "100m", "9.80", "Marcell Jacobs", "Italy", "Tokyo", "2021"},
	{store.CategoryEurope, store.GenderMen, "400m", "43.44", "Matthew Hudson-Smith", "Great Britain", "Paris", "2024"},
	{store.CategoryEurope, store.GenderMen, "800m", "1:41.11", "Wilson Kipketer", "Denmark", "Cologne", "1997"},
	{store.CategoryEurope, store.GenderWomen, "100m", "10.73", "Christine Arron", "France", "Budapest", "1998"},
	{store.CategoryEurope, store.GenderWomen, "400m", "47.60", "Marita Koch", "East Germany", "Canberra", "1985"},
	{store.CategoryEurope, store.GenderWomen, "800m", "1:53.28", "Jarmila Kratochvílová", "Czechoslovakia", "Munich", "1983"},

	{store.CategoryWorld, store.GenderMen, "100m", "9.58", "Usain Bolt", "Jamaica", "Berlin", "2009"},
	{store.CategoryWorld, store.GenderMen, "400m", "43.03", "Wayde van Niekerk", "South Africa", "Rio de Janeiro", "2016"},
	{store.CategoryWorld, store.GenderMen, "800m", "1:40.91", "David Rudisha", "Kenya", "London", "2012"},
	{store.CategoryWorld, store.GenderWomen, "100m", "10.49", "Florence Griffith-Joyner", "USA", "Indianapolis", "1988"},
	{store.CategoryWorld, store.GenderWomen, "400m", "47.60", "Marita Koch", "East Germany", "Canberra", "1985"},
	{store.CategoryWorld, store.GenderWomen, "800m", "1:53.28", "Jarmila Kratochvílová", "Czechoslovakia", "Munich", "1983"},
}

// RecordsFor returns the official records of a category, in table order
func RecordsFor(category store.AchievementCategory) []OfficialRecord {
	var out []OfficialRecord
	for _, r := range OfficialRecords {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// PersonalDistances are the distances with a "first personal record" achievement
var PersonalDistances = []string{"100m", "400m", "800m"}
