package rowset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbase/internal/shared"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "1996-02-05", want: NewDate(1996, time.February, 5)},
		{in: "2024-02-29", want: NewDate(2024, time.February, 29)},
		{in: "05-02-1996", wantErr: true},
		{in: "1996/02/05", wantErr: true},
		{in: "2023-02-29", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsTypeMismatch(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_Value(t *testing.T) {
	v, err := NewDate(1996, time.February, 5).Value()
	require.NoError(t, err)
	assert.Equal(t, "1996-02-05", v)

	_, err = NewDate(1996, time.February, 31).Value()
	assert.True(t, shared.IsTypeMismatch(err))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("1996-02-05"))
	assert.Equal(t, NewDate(1996, time.February, 5), d)

	require.NoError(t, d.Scan(time.Date(2001, 3, 4, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2001, time.March, 4), d)

	require.NoError(t, d.Scan([]byte("2010-10-10")))
	assert.Equal(t, "2010-10-10", d.String())

	require.NoError(t, d.Scan(nil))
	assert.Equal(t, Date{}, d)

	assert.True(t, shared.IsTypeMismatch(d.Scan(42)))
	assert.True(t, shared.IsTypeMismatch(d.Scan("05-02-1996")))
}

func TestDate_TimeRoundTrip(t *testing.T) {
	d := NewDate(1996, time.February, 5)
	assert.Equal(t, d, DateOf(d.Time()))
	assert.True(t, d.IsValid())
	assert.False(t, Date{}.IsValid())
}
