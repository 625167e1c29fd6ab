package app

import (
	"fmt"
	"time"

	"github.com/lcharvet/energiedw/internal/etl"
)

// StageProgressMsg updates the overall progress bar across the selected
// stage range.
type StageProgressMsg struct {
	Stage   string
	Current int64
	Total   int64
}

// UnitResultMsg reports one finished stage unit.
type UnitResultMsg struct {
	Stage  string
	Result etl.UnitResult
}

// TaskFinishedMsg signals the completion of a pipeline run.
type TaskFinishedMsg struct {
	Tag       string
	Err       error
	StartTime time.Time
	EndTime   time.Time
}

// GeneralErrorMsg signals an error outside any task.
type GeneralErrorMsg struct {
	Err error
}

func (e GeneralErrorMsg) Error() string { return e.Err.Error() }

func (p StageProgressMsg) String() string {
	return fmt.Sprintf("Progress %s: %d/%d", p.Stage, p.Current, p.Total)
}
func (u UnitResultMsg) String() string {
	return fmt.Sprintf("Unit %s/%s: %s", u.Stage, u.Result.Unit, u.Result.Status)
}
func (t TaskFinishedMsg) String() string { return fmt.Sprintf("TaskFinished %s", t.Tag) }
func (e GeneralErrorMsg) String() string { return fmt.Sprintf("GeneralError: %s", e.Err) }
