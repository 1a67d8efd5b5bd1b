package roster

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lulus/backend/internal/models"
)

// FilterAll disables the month filter in FilterAndSort.
const FilterAll = "all"

var monthNames = []string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// StatCount is one bucket of a stats breakdown.
type StatCount struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// Normalize fills the derived and fallback fields of a participant so every
// consumer sees fully-populated records instead of repeating `??`-style
// fallbacks at each call site.
func Normalize(p models.Participant) models.Participant {
	if !p.Date.IsZero() {
		p.Month = models.MonthString(p.Date)
	}
	if p.Name == "" {
		if fields := strings.Fields(p.FullName); len(fields) > 0 {
			p.Name = fields[0]
		}
	}
	if p.FullName == "" {
		p.FullName = p.Name
	}
	if p.PixKeyType == "" {
		p.PixKeyType = models.PixNone
	}
	if p.GivesToID < 0 {
		p.GivesToID = 0
	}
	return p
}

// FindByID resolves an id against the roster. Unresolvable ids (including
// the 0 "not participating" sentinel) return an empty placeholder, never an
// error.
func FindByID(list []models.Participant, id int) models.Participant {
	if id > 0 {
		for _, p := range list {
			if p.ID == id {
				return p
			}
		}
	}
	return models.Participant{}
}

// NextBirthday returns the participant whose birthday comes up soonest from
// today. Ties keep list order. ok is false for an empty roster.
func NextBirthday(list []models.Participant) (models.Participant, bool) {
	return NextBirthdayFrom(list, time.Now())
}

// NextBirthdayFrom is NextBirthday anchored at an arbitrary instant.
func NextBirthdayFrom(list []models.Participant, now time.Time) (models.Participant, bool) {
	var (
		best      models.Participant
		bestUntil time.Duration
		found     bool
	)

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, p := range list {
		if p.Date.IsZero() {
			continue
		}
		next := nextOccurrence(p.Date, today)
		until := next.Sub(today)
		if !found || until < bestUntil {
			best = p
			bestUntil = until
			found = true
		}
	}

	return best, found
}

// nextOccurrence returns the next anniversary of date's month/day on or
// after today. Feb 29 birthdays land on Mar 1 in non-leap years via
// time.Date normalization.
func nextOccurrence(date, today time.Time) time.Time {
	next := time.Date(today.Year(), date.Month(), date.Day(), 0, 0, 0, 0, today.Location())
	if next.Before(today) {
		next = time.Date(today.Year()+1, date.Month(), date.Day(), 0, 0, 0, 0, today.Location())
	}
	return next
}

// DaysUntilBirthday returns whole days from now until the participant's next
// birthday, 0 on the day itself.
func DaysUntilBirthday(p models.Participant, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(nextOccurrence(p.Date, today).Sub(today).Hours() / 24)
}

// FilterAndSort applies a case-insensitive substring search (against name
// and gives-to name), an optional month filter ("all" or "" disables it) and
// an optional sort ("name" or "date"; anything else keeps input order). The
// input slice is never mutated.
func FilterAndSort(list []models.Participant, search, month, sortBy string) []models.Participant {
	out := make([]models.Participant, 0, len(list))

	term := strings.ToLower(strings.TrimSpace(search))
	for _, p := range list {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.FullName), term) &&
			!strings.Contains(strings.ToLower(p.GivesTo), term) {
			continue
		}
		if month != "" && month != FilterAll && p.Month != month {
			continue
		}
		out = append(out, p)
	}

	switch sortBy {
	case "name":
		// Collator instances are not safe for concurrent use, so build one
		// per call. Accented names ("Ágata") must sort with their base
		// letter, which a byte compare gets wrong.
		cl := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return cl.CompareString(out[i].Name, out[j].Name) < 0
		})
	case "date":
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Month != out[j].Month {
				return out[i].Month < out[j].Month
			}
			return out[i].Date.Day() < out[j].Date.Day()
		})
	}

	return out
}

// MonthStats counts participants per calendar month. The result always has
// 12 entries, even for an empty roster.
func MonthStats(list []models.Participant) []StatCount {
	out := make([]StatCount, 12)
	for i := range out {
		out[i].Name = monthNames[i]
	}
	for _, p := range list {
		if len(p.Month) != 2 {
			continue
		}
		idx := int(p.Month[0]-'0')*10 + int(p.Month[1]-'0') - 1
		if idx >= 0 && idx < 12 {
			out[idx].Total++
		}
	}
	return out
}

// SignStats groups participants by zodiac sign. Unlike MonthStats, signs
// with no participants are omitted, so an empty roster yields an empty
// slice.
func SignStats(list []models.Participant) []StatCount {
	totals := make(map[string]int)
	for _, p := range list {
		if p.Date.IsZero() {
			continue
		}
		totals[SignFor(p.Date).Label]++
	}

	out := make([]StatCount, 0, len(totals))
	for _, s := range Signs() {
		if n := totals[s.Label]; n > 0 {
			out = append(out, StatCount{Name: s.Label, Total: n})
		}
	}
	return out
}

// Initials returns the uppercased first letters of the first two name
// tokens ("Maria da Silva" -> "MD").
func Initials(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	var b strings.Builder
	for _, f := range fields {
		r := []rune(f)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// FormatDayMonth renders a date as dd/mm (pt-BR short form).
func FormatDayMonth(date time.Time) string {
	return fmt.Sprintf("%02d/%02d", date.Day(), int(date.Month()))
}

// FormatLong renders a date as an English long form ("March 21").
func FormatLong(date time.Time) string {
	return date.Format("January 2")
}

// PhotoURL appends the update stamp as a cache-busting query parameter.
// A zero stamp returns the URL untouched.
func PhotoURL(rawURL string, updatedAt int64) string {
	if rawURL == "" || updatedAt == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sv=%d", rawURL, sep, updatedAt)
}
