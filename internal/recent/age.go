// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recent

import (
	"fmt"
	"time"
)

// AbsoluteDateLayout renders views older than a week.
const AbsoluteDateLayout = "Jan 2, 2006"

// FormatAge labels how long before now the timestamp viewed was.
//
//	< 1 minute  "Just now"
//	< 1 hour    "N minute(s) ago"
//	< 1 day     "N hour(s) ago"
//	< 7 days    "N day(s) ago"
//	otherwise   "Jan 2, 2006"
//
// Timestamps in the future count as "Just now".
func FormatAge(viewed, now time.Time) string {
	elapsed := now.Sub(viewed)

	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return plural(int(elapsed/time.Minute), "minute")
	case elapsed < 24*time.Hour:
		return plural(int(elapsed/time.Hour), "hour")
	case elapsed < 7*24*time.Hour:
		return plural(int(elapsed/(24*time.Hour)), "day")
	default:
		return viewed.Format(AbsoluteDateLayout)
	}
}

func plural(count int, unit string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", count, unit)
}
