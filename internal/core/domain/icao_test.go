package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		raw     string
		want    LookupKey
		wantErr bool
	}{
		{raw: "KJFK", want: "KJFK"},
		{raw: "  egll ", want: "EGLL"},
		{raw: "lfPg", want: "LFPG"},
		{raw: "", wantErr: true},
		{raw: "   ", wantErr: true},
		{raw: "JFK", wantErr: true},
		{raw: "KJFKX", wantErr: true},
		{raw: "K1FK", wantErr: true},
		{raw: "KJ-K", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeKey(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackAirport(t *testing.T) {
	rec := FallbackAirport("KJFK")

	assert.Equal(t, "KJFK", rec.ICAOCode)
	assert.True(t, rec.Degraded)
	assert.Equal(t, DefaultTimezone, rec.Timezone)
	assert.Nil(t, rec.Location)
	assert.Nil(t, rec.Elevation)
}
