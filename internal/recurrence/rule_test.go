package recurrence

import (
	"testing"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		want    *Rule
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: "FREQ=WEEKLY;COUNT=3", want: &Rule{Freq: Weekly, Count: 3, Interval: 1}},
		{raw: "RRULE:freq=daily;count=2;interval=2", want: &Rule{Freq: Daily, Count: 2, Interval: 2}},
		{raw: "FREQ=MONTHLY;COUNT=3", wantErr: true},
		{raw: "FREQ=WEEKLY;COUNT=13", wantErr: true},
		{raw: "FREQ=WEEKLY", wantErr: true},
		{raw: "FREQ=WEEKLY;COUNT=2;BYDAY=MO", wantErr: true},
		{raw: "FREQ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand(t *testing.T) {
	first := domain.Interval{
		Start: time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 3, 16, 0, 0, 0, time.UTC),
	}

	got := Expand(first, &Rule{Freq: Weekly, Count: 3, Interval: 1}, time.UTC)
	want := []domain.Interval{
		first,
		{Start: first.Start.AddDate(0, 0, 7), End: first.End.AddDate(0, 0, 7)},
		{Start: time.Date(2025, 3, 17, 15, 0, 0, 0, time.UTC), End: time.Date(2025, 3, 17, 16, 0, 0, 0, time.UTC)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Expand() mismatch (-want +got):\n%s", diff)
	}

	got = Expand(first, &Rule{Freq: Daily, Count: 2, Interval: 2}, time.UTC)
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC), got[1].Start)

	assert.Equal(t, []domain.Interval{first}, Expand(first, nil, time.UTC))
}

func TestExpand_KeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Indiana/Indianapolis")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	start := time.Date(2025, 3, 5, 10, 0, 0, 0, loc)
	first := domain.Interval{Start: start.UTC(), End: start.Add(time.Hour).UTC()}

	got := Expand(first, &Rule{Freq: Weekly, Count: 2, Interval: 1}, loc)
	assert.Equal(t, 10, got[1].Start.In(loc).Hour())
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "FREQ=DAILY;COUNT=4", (&Rule{Freq: Daily, Count: 4, Interval: 1}).String())
	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=2;COUNT=4", (&Rule{Freq: Weekly, Count: 4, Interval: 2}).String())
	var nilRule *Rule
	assert.Equal(t, "", nilRule.String())
}
