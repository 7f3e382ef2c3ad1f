package ledger

import (
	"context"
	"time"

	"github.com/sushihentaime/inkwell/internal/policy"
)

const chartWeeks = 8

type week struct {
	start, end time.Time
}

// weeklyPartitions splits the period starting on the Monday chartWeeks weeks
// before now into consecutive seven day windows, the last one covering now.
func weeklyPartitions(now time.Time, weeks int) []week {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := midnight.AddDate(0, 0, 1-weekday-weeks*7)

	var out []week
	for start.Before(now) {
		end := start.AddDate(0, 0, 7)
		out = append(out, week{start: start, end: end})
		start = end
	}

	return out
}

// ChartData counts the likes and new followers actor received per week.
func (l *Ledger) ChartData(ctx context.Context, actor policy.Actor) (ChartData, error) {
	if err := policy.CanPerform(actor, policy.ViewActivity, policy.Target{}).Err(); err != nil {
		return ChartData{}, err
	}

	data := ChartData{Likes: []ChartPoint{}, Followers: []ChartPoint{}}
	for _, w := range weeklyPartitions(time.Now(), chartWeeks) {
		likes, err := l.m.countBetween(ctx, l.db, "likes", actor.ID, w.start, w.end)
		if err != nil {
			return ChartData{}, err
		}

		followers, err := l.m.countBetween(ctx, l.db, "follows", actor.ID, w.start, w.end)
		if err != nil {
			return ChartData{}, err
		}

		data.Likes = append(data.Likes, ChartPoint{Week: w.end, Count: likes})
		data.Followers = append(data.Followers, ChartPoint{Week: w.end, Count: followers})
	}

	return data, nil
}
