package timerecord

import "sort"

var transitions = map[PunchType][]PunchType{
	PunchEntry:      {PunchBreakStart, PunchExit},
	PunchBreakStart: {PunchBreakEnd},
	PunchBreakEnd:   {PunchBreakStart, PunchExit},
	PunchExit:       {PunchEntry},
}

// AllowedNext returns the punch types that may follow last. A nil last means
// the day has no punch yet.
func AllowedNext(last *PunchType) []PunchType {
	if last == nil {
		return []PunchType{PunchEntry}
	}
	return transitions[*last]
}

func canFollow(last *PunchType, next PunchType) bool {
	for _, p := range AllowedNext(last) {
		if p == next {
			return true
		}
	}
	return false
}

// ValidSequence reports whether punches, in time order, form a legal prefix
// of the day grammar.
func ValidSequence(punches []PunchType) bool {
	var last *PunchType
	for i := range punches {
		if !canFollow(last, punches[i]) {
			return false
		}
		last = &punches[i]
	}
	return true
}

// InsertPosition returns the index at which a punch at minute t is placed
// among records ordered by time. Equal times go after existing punches.
func InsertPosition(day []TimeRecord, t int) int {
	return sort.Search(len(day), func(i int) bool {
		return day[i].RecordTime.Minutes() > t
	})
}

// CheckInsertion validates placing candidate at index pos of day (punch types
// in time order). Both the predecessor and every later punch must stay legal.
func CheckInsertion(day []PunchType, pos int, candidate PunchType) error {
	var last *PunchType
	if pos > 0 {
		prev := day[pos-1]
		last = &prev
	}

	allowed := insertable(last, day[pos:])
	for _, p := range allowed {
		if p == candidate {
			return nil
		}
	}
	return &SequenceError{Last: last, Attempted: candidate, Expected: allowed}
}

func insertable(last *PunchType, rest []PunchType) []PunchType {
	var out []PunchType
	for _, p := range AllowedNext(last) {
		if followsWithin(p, rest) {
			out = append(out, p)
		}
	}
	return out
}

// followsWithin checks rest against p as the preceding punch.
func followsWithin(p PunchType, rest []PunchType) bool {
	last := &p
	for i := range rest {
		if !canFollow(last, rest[i]) {
			return false
		}
		last = &rest[i]
	}
	return true
}

// PunchTypes projects the records that take part in sequencing.
func PunchTypes(records []TimeRecord) []PunchType {
	types := make([]PunchType, 0, len(records))
	for _, r := range records {
		if r.Status.Counts() {
			types = append(types, r.Type)
		}
	}
	return types
}

// Counting filters out rejected and voided punches, keeping order.
func Counting(records []TimeRecord) []TimeRecord {
	out := make([]TimeRecord, 0, len(records))
	for _, r := range records {
		if r.Status.Counts() {
			out = append(out, r)
		}
	}
	return out
}
