package domain

// DateWindow is an inclusive range of epoch-millis deadlines.
type DateWindow struct {
	Start int64
	End   int64
}

// NewDateWindow validates that start does not come after end.
func NewDateWindow(start, end int64) (DateWindow, error) {
	if start > end {
		return DateWindow{}, NewValidationError("start_date", "must not be after end_date", ErrInvalidDateRange)
	}
	return DateWindow{Start: start, End: end}, nil
}

// Contains reports whether ts lies inside the window.
func (w DateWindow) Contains(ts int64) bool {
	return ts >= w.Start && ts <= w.End
}

// Selects reports whether t belongs in a date-window listing: never when
// cancelled, always when its deadline is inside the window, and otherwise
// only when it is overdue (deadline before Start) and not yet completed.
func (w DateWindow) Selects(t *Task) bool {
	if t.Status == TaskStatusCancelled {
		return false
	}
	if w.Contains(t.Deadline) {
		return true
	}
	return t.Deadline < w.Start && t.Status != TaskStatusCompleted
}

// SelectsStrict reports whether t is uncancelled with its deadline inside the
// window, ignoring overdue work.
func (w DateWindow) SelectsStrict(t *Task) bool {
	return t.Status != TaskStatusCancelled && w.Contains(t.Deadline)
}
