package roster

import "time"

// Sign is a western tropical zodiac sign.
type Sign struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

type signRange struct {
	sign       Sign
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
}

// The twelve ranges partition the whole year. Capricorn wraps the year
// boundary (Dec 22 - Jan 20).
var signRanges = []signRange{
	{Sign{"capricornio", "Capricórnio", "♑"}, time.December, 22, time.January, 20},
	{Sign{"aquario", "Aquário", "♒"}, time.January, 21, time.February, 19},
	{Sign{"peixes", "Peixes", "♓"}, time.February, 20, time.March, 20},
	{Sign{"aries", "Áries", "♈"}, time.March, 21, time.April, 20},
	{Sign{"touro", "Touro", "♉"}, time.April, 21, time.May, 20},
	{Sign{"gemeos", "Gêmeos", "♊"}, time.May, 21, time.June, 20},
	{Sign{"cancer", "Câncer", "♋"}, time.June, 21, time.July, 22},
	{Sign{"leao", "Leão", "♌"}, time.July, 23, time.August, 22},
	{Sign{"virgem", "Virgem", "♍"}, time.August, 23, time.September, 22},
	{Sign{"libra", "Libra", "♎"}, time.September, 23, time.October, 22},
	{Sign{"escorpiao", "Escorpião", "♏"}, time.October, 23, time.November, 21},
	{Sign{"sagitario", "Sagitário", "♐"}, time.November, 22, time.December, 21},
}

func (r signRange) contains(month time.Month, day int) bool {
	if r.startMonth > r.endMonth {
		// Wraps the year boundary.
		return (month == r.startMonth && day >= r.startDay) ||
			(month == r.endMonth && day <= r.endDay)
	}
	if month == r.startMonth {
		return day >= r.startDay
	}
	if month == r.endMonth {
		return day <= r.endDay
	}
	return month > r.startMonth && month < r.endMonth
}

// SignFor maps a calendar date to its zodiac sign. Every valid date matches
// exactly one range; the fallback below is unreachable but keeps the
// function total for arbitrary inputs.
func SignFor(date time.Time) Sign {
	month, day := date.Month(), date.Day()
	for _, r := range signRanges {
		if r.contains(month, day) {
			return r.sign
		}
	}
	return signRanges[0].sign
}

// Signs returns the twelve signs in zodiac order, starting at Capricórnio.
func Signs() []Sign {
	out := make([]Sign, len(signRanges))
	for i, r := range signRanges {
		out[i] = r.sign
	}
	return out
}
