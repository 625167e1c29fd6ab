// Package gold builds the dimensional model (star schema) from silver
// tables: a calendar and three descriptive dimensions, plus three fact
// tables. Surrogate keys are assigned by row position, so dimensions and
// facts are only consistent when produced by the same build run.
package gold

import (
	"time"

	"github.com/lcharvet/energiedw/internal/frame"
	"github.com/lcharvet/energiedw/internal/util"
)

// French public holidays with fixed dates, as MM-DD. Movable feasts
// (Easter Monday, Ascension, Pentecost) are not modelled.
var fixedHolidays = map[string]bool{
	"01-01": true, // Jour de l'an
	"05-01": true, // Fête du Travail
	"05-08": true, // Victoire 1945
	"07-14": true, // Fête nationale
	"08-15": true, // Assomption
	"11-01": true, // Toussaint
	"11-11": true, // Armistice 1918
	"12-25": true, // Noël
}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// BuildDimDate produces one row per day over [start, end] inclusive.
// day_of_week runs 0=Monday through 6=Sunday.
func BuildDimDate(start, end time.Time) *frame.Frame {
	f := frame.New(
		frame.Column{Name: "date_id", Type: frame.Int},
		frame.Column{Name: "date", Type: frame.Timestamp},
		frame.Column{Name: "year", Type: frame.Int},
		frame.Column{Name: "month", Type: frame.Int},
		frame.Column{Name: "day", Type: frame.Int},
		frame.Column{Name: "quarter", Type: frame.Int},
		frame.Column{Name: "week_of_year", Type: frame.Int},
		frame.Column{Name: "day_of_week", Type: frame.Int},
		frame.Column{Name: "day_name", Type: frame.String},
		frame.Column{Name: "is_weekend", Type: frame.Bool},
		frame.Column{Name: "is_holiday", Type: frame.Bool},
	)

	day := util.TruncateToDay(start)
	last := util.TruncateToDay(end)
	for !day.After(last) {
		dow := (int(day.Weekday()) + 6) % 7
		_, isoWeek := day.ISOWeek()
		f.Rows = append(f.Rows, []any{
			util.DateID(day),
			day,
			int64(day.Year()),
			int64(day.Month()),
			int64(day.Day()),
			int64((int(day.Month())-1)/3 + 1),
			int64(isoWeek),
			int64(dow),
			dayNames[dow],
			dow >= 5,
			fixedHolidays[day.Format("01-02")],
		})
		day = day.AddDate(0, 0, 1)
	}
	return f
}
