package calendar

import "sort"

// Booking is one committed appointment interval as seen by the conflict
// detector. Start and End may both be unset for a record whose doctor was
// assigned before a time was chosen.
type Booking struct {
	ID     string
	RoomID string
	Doctor string
	Start  TimeOfDay
	End    TimeOfDay
}

// ConflictResource identifies which scheduling resource is double-booked.
type ConflictResource string

const (
	// ResourceRoom indicates the room already holds an overlapping interval.
	ResourceRoom ConflictResource = "room"
	// ResourceDoctor indicates the doctor is booked elsewhere in the interval.
	ResourceDoctor ConflictResource = "doctor"
)

// Conflict reports the booking a proposed interval collides with.
type Conflict struct {
	Resource      ConflictResource
	WithBookingID string
	RoomID        string
	Doctor        string
}

// Calendar is a read-optimized projection of one day's committed bookings,
// grouped per room and per doctor. It is a pure value: rebuild it whenever a
// record commits or is deleted.
type Calendar struct {
	byRoom   map[string][]Booking
	byDoctor map[string][]Booking
}

// Build groups bookings by room and by doctor, each ordered by start time.
func Build(bookings []Booking) *Calendar {
	cal := &Calendar{
		byRoom:   make(map[string][]Booking),
		byDoctor: make(map[string][]Booking),
	}
	for _, booking := range bookings {
		if booking.RoomID != "" {
			cal.byRoom[booking.RoomID] = append(cal.byRoom[booking.RoomID], booking)
		}
		if booking.Doctor != "" {
			cal.byDoctor[booking.Doctor] = append(cal.byDoctor[booking.Doctor], booking)
		}
	}
	for _, group := range cal.byRoom {
		sortByStart(group)
	}
	for _, group := range cal.byDoctor {
		sortByStart(group)
	}
	return cal
}

func sortByStart(group []Booking) {
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].Start == group[j].Start {
			return group[i].ID < group[j].ID
		}
		return group[i].Start < group[j].Start
	})
}

// RoomConflict reports whether [start, end) overlaps another booking in the
// room, excluding the record being edited. Touching endpoints are adjacency,
// not overlap.
func (c *Calendar) RoomConflict(roomID, excludeID string, start, end TimeOfDay) (Conflict, bool) {
	if c == nil {
		return Conflict{}, false
	}
	for _, booking := range c.byRoom[roomID] {
		if booking.ID == excludeID {
			continue
		}
		if intervalsOverlap(start, end, booking.Start, booking.End) {
			return Conflict{
				Resource:      ResourceRoom,
				WithBookingID: booking.ID,
				RoomID:        roomID,
			}, true
		}
	}
	return Conflict{}, false
}

// DoctorConflict reports whether the doctor is already booked in [start, end)
// in any room, excluding the record being edited. When both times are unset
// the check degrades to "the doctor already has any booking that day", which
// blocks double-assignment before a time is filled in.
func (c *Calendar) DoctorConflict(doctor, excludeID string, start, end TimeOfDay) (Conflict, bool) {
	if c == nil || doctor == "" {
		return Conflict{}, false
	}
	coarse := !start.IsSet() && !end.IsSet()
	for _, booking := range c.byDoctor[doctor] {
		if booking.ID == excludeID {
			continue
		}
		if coarse || intervalsOverlap(start, end, booking.Start, booking.End) {
			return Conflict{
				Resource:      ResourceDoctor,
				WithBookingID: booking.ID,
				RoomID:        booking.RoomID,
				Doctor:        doctor,
			}, true
		}
	}
	return Conflict{}, false
}

// RoomBookings returns the ordered committed intervals for a room.
func (c *Calendar) RoomBookings(roomID string) []Booking {
	if c == nil {
		return nil
	}
	group := c.byRoom[roomID]
	out := make([]Booking, len(group))
	copy(out, group)
	return out
}

// DoctorBookings returns the ordered committed intervals for a doctor across
// all rooms.
func (c *Calendar) DoctorBookings(doctor string) []Booking {
	if c == nil {
		return nil
	}
	group := c.byDoctor[doctor]
	out := make([]Booking, len(group))
	copy(out, group)
	return out
}

// intervalsOverlap implements the half-open overlap test s1 < e2 && s2 < e1.
// Unset endpoints never overlap a concrete interval.
func intervalsOverlap(s1, e1, s2, e2 TimeOfDay) bool {
	if !s1.IsSet() || !e1.IsSet() || !s2.IsSet() || !e2.IsSet() {
		return false
	}
	return s1 < e2 && s2 < e1
}
