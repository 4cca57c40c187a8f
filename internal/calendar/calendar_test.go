package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(value)
	require.NoError(t, err)
	return tod
}

func TestRoomConflictDetectsOverlap(t *testing.T) {
	t.Parallel()

	cal := Build([]Booking{
		{ID: "a", RoomID: "room-1", Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")},
	})

	conflict, found := cal.RoomConflict("room-1", "", mustTime(t, "09:30"), mustTime(t, "10:30"))
	require.True(t, found)
	assert.Equal(t, ResourceRoom, conflict.Resource)
	assert.Equal(t, "a", conflict.WithBookingID)
	assert.Equal(t, "room-1", conflict.RoomID)

	// Symmetric: the existing booking inside the proposed interval.
	_, found = cal.RoomConflict("room-1", "", mustTime(t, "08:00"), mustTime(t, "12:00"))
	assert.True(t, found)

	// A different room is unaffected.
	_, found = cal.RoomConflict("room-2", "", mustTime(t, "09:30"), mustTime(t, "10:30"))
	assert.False(t, found)
}

func TestRoomConflictAllowsTouchingEndpoints(t *testing.T) {
	t.Parallel()

	cal := Build([]Booking{
		{ID: "a", RoomID: "room-1", Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")},
	})

	_, found := cal.RoomConflict("room-1", "", mustTime(t, "10:00"), mustTime(t, "11:00"))
	assert.False(t, found, "back-to-back bookings must be allowed")

	_, found = cal.RoomConflict("room-1", "", mustTime(t, "08:00"), mustTime(t, "09:00"))
	assert.False(t, found, "a booking ending at the start must be allowed")
}

func TestRoomConflictExcludesEditedRecord(t *testing.T) {
	t.Parallel()

	cal := Build([]Booking{
		{ID: "a", RoomID: "room-1", Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")},
	})

	_, found := cal.RoomConflict("room-1", "a", mustTime(t, "09:00"), mustTime(t, "10:00"))
	assert.False(t, found, "a record must not conflict with its own persisted slot")
}

func TestDoctorConflictAcrossRooms(t *testing.T) {
	t.Parallel()

	cal := Build([]Booking{
		{ID: "a", RoomID: "room-1", Doctor: "Ivanov", Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")},
	})

	conflict, found := cal.DoctorConflict("Ivanov", "", mustTime(t, "09:30"), mustTime(t, "10:30"))
	require.True(t, found)
	assert.Equal(t, ResourceDoctor, conflict.Resource)
	assert.Equal(t, "a", conflict.WithBookingID)
	assert.Equal(t, "room-1", conflict.RoomID)
	assert.Equal(t, "Ivanov", conflict.Doctor)

	_, found = cal.DoctorConflict("Petrov", "", mustTime(t, "09:30"), mustTime(t, "10:30"))
	assert.False(t, found)
}

func TestDoctorConflictCoarseWhenTimesUnset(t *testing.T) {
	t.Parallel()

	cal := Build([]Booking{
		{ID: "a", RoomID: "room-1", Doctor: "Ivanov", Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")},
	})

	// No time chosen yet: any existing booking for the doctor blocks.
	_, found := cal.DoctorConflict("Ivanov", "", TimeUnset, TimeUnset)
	assert.True(t, found)

	// With a concrete non-overlapping interval the same doctor is fine.
	_, found = cal.DoctorConflict("Ivanov", "", mustTime(t, "11:00"), mustTime(t, "12:00"))
	assert.False(t, found)
}

func TestUnsetIntervalsNeverOverlapConcreteOnes(t *testing.T) {
	t.Parallel()

	cal := Build([]Booking{
		{ID: "a", RoomID: "room-1", Start: TimeUnset, End: TimeUnset},
	})

	_, found := cal.RoomConflict("room-1", "", mustTime(t, "09:00"), mustTime(t, "10:00"))
	assert.False(t, found, "a booking without times holds no room slot")
}

func TestIntervalOverlapIsSymmetric(t *testing.T) {
	t.Parallel()

	cases := []struct {
		s1, e1, s2, e2 string
		want           bool
	}{
		{"09:00", "10:00", "09:30", "10:30", true},
		{"09:00", "12:00", "10:00", "11:00", true},
		{"09:00", "10:00", "10:00", "11:00", false},
		{"09:00", "10:00", "11:00", "12:00", false},
	}

	for _, tc := range cases {
		s1, e1 := mustTime(t, tc.s1), mustTime(t, tc.e1)
		s2, e2 := mustTime(t, tc.s2), mustTime(t, tc.e2)
		ab := intervalsOverlap(s1, e1, s2, e2)
		ba := intervalsOverlap(s2, e2, s1, e1)
		assert.Equal(t, tc.want, ab, "%s-%s vs %s-%s", tc.s1, tc.e1, tc.s2, tc.e2)
		assert.Equal(t, ab, ba, "overlap must not depend on argument order")
	}
}

func TestBookingsOrderedByStart(t *testing.T) {
	t.Parallel()

	cal := Build([]Booking{
		{ID: "late", RoomID: "room-1", Doctor: "Ivanov", Start: mustTime(t, "14:00"), End: mustTime(t, "15:00")},
		{ID: "early", RoomID: "room-1", Doctor: "Ivanov", Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")},
	})

	rooms := cal.RoomBookings("room-1")
	require.Len(t, rooms, 2)
	assert.Equal(t, "early", rooms[0].ID)
	assert.Equal(t, "late", rooms[1].ID)

	doctors := cal.DoctorBookings("Ivanov")
	require.Len(t, doctors, 2)
	assert.Equal(t, "early", doctors[0].ID)
}

func TestNilCalendarIsEmpty(t *testing.T) {
	t.Parallel()

	var cal *Calendar
	_, found := cal.RoomConflict("room-1", "", mustTime(t, "09:00"), mustTime(t, "10:00"))
	assert.False(t, found)
	_, found = cal.DoctorConflict("Ivanov", "", TimeUnset, TimeUnset)
	assert.False(t, found)
	assert.Nil(t, cal.RoomBookings("room-1"))
}
