package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAkvoraID_Padding(t *testing.T) {
	assert.Equal(t, "AKVORA:2025:001", FormatAkvoraID(2025, 1))
	assert.Equal(t, "AKVORA:2025:042", FormatAkvoraID(2025, 42))
	assert.Equal(t, "AKVORA:2026:999", FormatAkvoraID(2026, 999))
	assert.Equal(t, "AKVORA:2026:1000", FormatAkvoraID(2026, 1000))
}

func TestExpiryFrom_Units(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 500, time.UTC)

	got, err := ExpiryFrom(start, 2, UnitDays)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), got)

	got, err = ExpiryFrom(start, 3, UnitHours)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC), got)
}

func TestExpiryFrom_Invalid(t *testing.T) {
	_, err := ExpiryFrom(time.Now(), 0, UnitDays)
	assert.True(t, errors.Is(err, ErrBadRequest))

	_, err = ExpiryFrom(time.Now(), 1, DurationUnit("weeks"))
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestAnnouncement_RefreshStatus(t *testing.T) {
	exp := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	a := &Announcement{Status: AnnouncementActive, ExpiresAt: exp}

	assert.False(t, a.RefreshStatus(exp))
	assert.Equal(t, AnnouncementActive, a.Status)

	assert.True(t, a.RefreshStatus(exp.Add(time.Second)))
	assert.Equal(t, AnnouncementExpired, a.Status)

	assert.False(t, a.RefreshStatus(exp.Add(time.Hour)))
}

func TestNotification_Expired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	assert.False(t, (&Notification{}).Expired(now))
	assert.False(t, (&Notification{ExpiresAt: now.Unix() + 1}).Expired(now))
	assert.True(t, (&Notification{ExpiresAt: now.Unix()}).Expired(now))
}

func TestNotificationKind_Valid(t *testing.T) {
	assert.True(t, KindApproval.Valid())
	assert.False(t, NotificationKind("newsletter").Valid())
}
