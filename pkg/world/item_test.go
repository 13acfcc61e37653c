package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItem(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Item
		wantErr bool
	}{
		{
			name: "bare name",
			data: "bow",
			want: Item{Name: "bow", Count: 1},
		},
		{
			name: "stack",
			data: "arrow~12",
			want: Item{Name: "arrow", Count: 12},
		},
		{
			name:    "unknown name",
			data:    "bazooka",
			wantErr: true,
		},
		{
			name:    "bad count",
			data:    "arrow~lots",
			wantErr: true,
		},
		{
			name:    "zero count",
			data:    "arrow~0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItem(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInventoryAddMerges(t *testing.T) {
	var inv Inventory
	inv.Add(Item{Name: "wood", Count: 5})
	inv.Add(Item{Name: "stone", Count: 2})
	inv.Add(Item{Name: "wood", Count: 3})

	assert.Equal(t, 2, inv.Size())
	assert.Equal(t, 8, inv.Count("wood"))
	assert.Equal(t, 2, inv.Count("stone"))
}

func TestInventoryRemove(t *testing.T) {
	var inv Inventory
	inv.Add(Item{Name: "wood", Count: 5})
	inv.Add(Item{Name: "gem", Count: 1})

	item, err := inv.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, "gem", item.Name)
	assert.Equal(t, 1, inv.Size())

	_, err = inv.Remove(1)
	assert.Error(t, err)
	_, err = inv.Remove(-1)
	assert.Error(t, err)
	// Failed removals leave the inventory untouched.
	assert.Equal(t, 5, inv.Count("wood"))
}

func TestInventoryData(t *testing.T) {
	var inv Inventory
	require.NoError(t, inv.LoadData("sword_iron,arrow~30,torch~4"))
	assert.Equal(t, 30, inv.Count("arrow"))
	assert.Equal(t, "sword_iron,arrow~30,torch~4", inv.Data())

	require.NoError(t, inv.LoadData(""))
	assert.Equal(t, 0, inv.Size())

	assert.Error(t, inv.LoadData("sword_iron,notanitem"))
}
