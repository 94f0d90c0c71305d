// Package stats derives dashboard-ready aggregates from message
// snapshots. Everything here is a pure function over its input: the
// snapshot is never mutated and repeat calls carry no state.
package stats

import (
	"math"
	"time"

	"github.com/bulkmsg/bulkmsg/internal/backend"
)

// DailyVolumeDays is the fixed size of the daily volume window.
const DailyVolumeDays = 7

// Bucket is one labelled count in a dashboard series.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TypeDistribution counts messages per type literal. Types absent
// from the snapshot are absent from the map, so reading a missing key
// yields zero.
func TypeDistribution(msgs []backend.MessageRecord) map[backend.MessageType]int {
	dist := make(map[backend.MessageType]int)
	for _, m := range msgs {
		dist[m.Type]++
	}
	return dist
}

// DailyVolume buckets the snapshot into the last DailyVolumeDays
// calendar days ending at now, oldest first, in now's location. Days
// without messages report a zero bucket, not absence.
func DailyVolume(msgs []backend.MessageRecord, now time.Time) []Bucket {
	loc := now.Location()

	buckets := make([]Bucket, DailyVolumeDays)
	index := make(map[string]int, DailyVolumeDays)
	for i := range buckets {
		day := now.AddDate(0, 0, i-(DailyVolumeDays-1))
		buckets[i] = Bucket{Label: day.Format("Jan 02")}
		index[day.Format("2006-01-02")] = i
	}

	for _, m := range msgs {
		key := m.CreatedAt.In(loc).Format("2006-01-02")
		if i, ok := index[key]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}

// Rates holds integer success/failure percentages for a dashboard.
type Rates struct {
	Success int `json:"successRate"`
	Failure int `json:"failureRate"`
}

// SendRates computes rounded percentages of successful and failed
// sends. Both report zero when totalRecipients is zero; a division by
// zero never reaches the presentation layer.
func SendRates(successful, failed, totalRecipients int) Rates {
	if totalRecipients <= 0 {
		return Rates{}
	}
	return Rates{
		Success: percent(successful, totalRecipients),
		Failure: percent(failed, totalRecipients),
	}
}

func percent(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
