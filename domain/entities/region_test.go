package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultInputRegion(t *testing.T) {
	region := DefaultInputRegion()

	assert.Equal(t, uint32(1024), region.Offset)
	assert.Equal(t, uint32(64512), region.Capacity)
	require.NoError(t, region.Validate())

	// Default region stays inside the first memory page.
	assert.LessOrEqual(t, region.Offset+region.Capacity, uint32(65536))
}

func TestInputRegion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		region  InputRegion
		wantErr bool
	}{
		{
			name:   "default",
			region: DefaultInputRegion(),
		},
		{
			name:   "custom",
			region: InputRegion{Offset: 4096, Capacity: 8192},
		},
		{
			name:   "zero offset",
			region: InputRegion{Offset: 0, Capacity: 1024},
		},
		{
			name:    "zero capacity",
			region:  InputRegion{Offset: 1024, Capacity: 0},
			wantErr: true,
		},
		{
			name:    "end overflows uint32",
			region:  InputRegion{Offset: 0xFFFFFFFF, Capacity: 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInputRegion_Fits(t *testing.T) {
	region := InputRegion{Offset: 1024, Capacity: 100}

	assert.True(t, region.Fits(0))
	assert.True(t, region.Fits(100))
	assert.False(t, region.Fits(101))
	assert.False(t, region.Fits(-1))
}
