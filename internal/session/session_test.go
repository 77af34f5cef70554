package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestCurrentMonthBoundaries(t *testing.T) {
	cases := []struct {
		name string
		date time.Time
		want ID
	}{
		{"january", date(2015, time.January, 1), "20151"},
		{"may", date(2015, time.May, 31), "20151"},
		{"june", date(2015, time.June, 1), "20152"},
		{"august", date(2015, time.August, 31), "20152"},
		{"september", date(2015, time.September, 1), "20153"},
		{"december", date(2015, time.December, 31), "20153"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Current(tc.date))
		})
	}
}

func TestFormatOfCurrentAlwaysLabelled(t *testing.T) {
	start := date(2014, time.January, 1)
	for day := 0; day < 366*2; day++ {
		d := start.AddDate(0, 0, day)
		label := Format(Current(d))
		year := d.Format("2006")
		assert.Contains(t, []string{"Winter " + year, "Summer " + year, "Fall " + year}, label)
	}
}

func TestRecentWrapsAcrossYears(t *testing.T) {
	got := Recent(6, "20152")
	assert.Equal(t, []ID{"20152", "20151", "20143", "20142", "20141", "20133"}, got)
}

func TestRecentEdgeCounts(t *testing.T) {
	assert.Empty(t, Recent(0, "20152"))
	assert.Empty(t, Recent(-3, "20152"))
	assert.Equal(t, []ID{"20153"}, Recent(1, "20153"))
	assert.Nil(t, Recent(3, "2015X"))
	assert.Nil(t, Recent(3, ""))
}

func TestRecentLargeCountKeepsWalking(t *testing.T) {
	got := Recent(3*2100, "20153")
	require.Len(t, got, 3*2100)
	assert.Equal(t, ID("-841"), got[len(got)-1])
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Winter 2015", Format("20151"))
	assert.Equal(t, "Summer 2015", Format("20152"))
	assert.Equal(t, "Fall 2015", Format("20153"))
	assert.Equal(t, "", Format("2015X"))
	assert.Equal(t, "", Format("20154"))
	assert.Equal(t, "", Format("2015"))
	assert.Equal(t, "", Format(""))
	assert.Equal(t, "", Format("abcd1"))
	assert.Equal(t, "", Format("20-51"))
	assert.Equal(t, "Fall -100", Format(New(-100, Fall)))
}

func TestParse(t *testing.T) {
	id, err := Parse("20143")
	require.NoError(t, err)
	assert.Equal(t, 2014, id.Year())
	assert.Equal(t, Fall, id.Term())

	for _, bad := range []string{"", "2014", "20144", "2014a", "-2013", "abcd1"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}
