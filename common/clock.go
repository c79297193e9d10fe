package common

import "time"

// TimeOfDay places an hh:mm:ss.mmm reading, which carries no date, on the
// UTC date of now. A reading 20 or more hours away from the current hour is
// taken to belong to the neighbouring day.
func TimeOfDay(now time.Time, hour, minute, second, millis int) time.Time {
	now = now.UTC()
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, second, millis*int(time.Millisecond), time.UTC)
	switch diff := hour - now.Hour(); {
	case diff >= 20:
		t = t.AddDate(0, 0, -1)
	case diff <= -20:
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// SecondsOfDay is TimeOfDay for a seconds-since-midnight count, as carried by
// the GDL-90 heartbeat.
func SecondsOfDay(now time.Time, secs int) time.Time {
	secs %= 86400
	return TimeOfDay(now, secs/3600, (secs/60)%60, secs%60, 0)
}

// DayOfYear places a reading with an explicit month and day in the year of
// now, moving it a year back or forward when the month is 9 or more months
// away from the current one.
func DayOfYear(now time.Time, month, day, hour, minute, second int) time.Time {
	now = now.UTC()
	year := now.Year()
	switch diff := month - int(now.Month()); {
	case diff >= 9:
		year--
	case diff <= -9:
		year++
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}
