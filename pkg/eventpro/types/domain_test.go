package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "USER", want: RoleUser},
		{in: "admin", want: RoleAdmin},
		{in: " Admin ", want: RoleAdmin},
		{in: "owner", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserIsZero(t *testing.T) {
	assert.True(t, User{}.IsZero())
	assert.False(t, User{ID: "1"}.IsZero())
	assert.True(t, User{Role: RoleAdmin}.IsAdmin())
	assert.False(t, User{Role: RoleUser}.IsAdmin())
}

func TestEventStartsAt(t *testing.T) {
	e := Event{ID: "1", Date: "2026-03-01", Time: "18:30"}
	got, err := e.StartsAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC), got)

	e = Event{ID: "2", Date: "2026-03-01T10:00:00Z"}
	got, err = e.StartsAt()
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	_, err = Event{ID: "3"}.StartsAt()
	assert.Error(t, err)
}

func TestEventInputValidate(t *testing.T) {
	valid := EventInput{Name: "Go Meetup", Date: "2026-01-01", Location: "Lisbon", Capacity: 50}
	assert.NoError(t, valid.Validate())

	missing := EventInput{Capacity: 10}
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name, date, location")

	zero := valid
	zero.Capacity = 0
	assert.Error(t, zero.Validate())
}

func TestEventSoldOut(t *testing.T) {
	assert.True(t, Event{AvailableSpots: 0}.SoldOut())
	assert.False(t, Event{AvailableSpots: 3}.SoldOut())
}
