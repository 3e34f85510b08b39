// Package category suggests one of the seeded chore categories from a chore
// title.
package category

import "strings"

// IDs of the categories seeded by the migrations.
const (
	Cleaning    = "default-cleaning"
	Kitchen     = "default-kitchen"
	Laundry     = "default-laundry"
	Maintenance = "default-maintenance"
	Shopping    = "default-shopping"
)

// Suggest returns the default category ID that best fits title, or "" when
// nothing matches. Matching is case-insensitive: exact title first, then
// keyword containment.
func Suggest(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	if name == "" {
		return ""
	}

	if id, ok := exactMatch[name]; ok {
		return id
	}

	// ordered longer/more-specific first
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return ""
}

var exactMatch = map[string]string{
	"dishes":      Kitchen,
	"cook":        Kitchen,
	"cooking":     Kitchen,
	"dinner":      Kitchen,
	"lunch":       Kitchen,
	"breakfast":   Kitchen,
	"meal prep":   Kitchen,
	"dishwasher":  Kitchen,
	"wash":        Laundry,
	"ironing":     Laundry,
	"folding":     Laundry,
	"laundry":     Laundry,
	"vacuum":      Cleaning,
	"vacuuming":   Cleaning,
	"dust":        Cleaning,
	"dusting":     Cleaning,
	"mop":         Cleaning,
	"mopping":     Cleaning,
	"sweep":       Cleaning,
	"sweeping":    Cleaning,
	"tidy up":     Cleaning,
	"trash":       Cleaning,
	"recycling":   Cleaning,
	"groceries":   Shopping,
	"errands":     Shopping,
	"pharmacy":    Shopping,
	"mow":         Maintenance,
	"mow lawn":    Maintenance,
	"gutters":     Maintenance,
	"yard work":   Maintenance,
	"weeding":     Maintenance,
	"oil change":  Maintenance,
	"car service": Maintenance,
}

type keywordEntry struct {
	keyword  string
	category string
}

var substringMatches = []keywordEntry{
	// Laundry
	{"dry cleaning", Laundry},
	{"bed sheets", Laundry},
	{"change sheets", Laundry},
	{"fold clothes", Laundry},
	{"laundry", Laundry},
	{"towels", Laundry},
	{"ironing", Laundry},
	{"clothes", Laundry},
	{"sheets", Laundry},

	// Kitchen
	{"unload dishwasher", Kitchen},
	{"load dishwasher", Kitchen},
	{"dishwasher", Kitchen},
	{"meal prep", Kitchen},
	{"fridge", Kitchen},
	{"kitchen", Kitchen},
	{"dishes", Kitchen},
	{"stove", Kitchen},
	{"oven", Kitchen},
	{"pantry", Kitchen},
	{"cook", Kitchen},
	{"dinner", Kitchen},
	{"lunch", Kitchen},

	// Shopping
	{"grocery", Shopping},
	{"groceries", Shopping},
	{"shopping", Shopping},
	{"pick up", Shopping},
	{"buy", Shopping},
	{"order", Shopping},
	{"store", Shopping},

	// Maintenance
	{"light bulb", Maintenance},
	{"smoke detector", Maintenance},
	{"air filter", Maintenance},
	{"lawn", Maintenance},
	{"garden", Maintenance},
	{"gutter", Maintenance},
	{"repair", Maintenance},
	{"fix", Maintenance},
	{"paint", Maintenance},
	{"leak", Maintenance},
	{"hedge", Maintenance},
	{"snow", Maintenance},
	{"tires", Maintenance},
	{"mow", Maintenance},

	// Cleaning
	{"bathroom", Cleaning},
	{"toilet", Cleaning},
	{"shower", Cleaning},
	{"windows", Cleaning},
	{"vacuum", Cleaning},
	{"floors", Cleaning},
	{"trash", Cleaning},
	{"garbage", Cleaning},
	{"recycling", Cleaning},
	{"dust", Cleaning},
	{"mop", Cleaning},
	{"sweep", Cleaning},
	{"tidy", Cleaning},
	{"clean", Cleaning},
	{"wipe", Cleaning},
	{"scrub", Cleaning},
}
