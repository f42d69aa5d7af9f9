package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDate_JSON(t *testing.T) {
	type wrapper struct {
		Expiry *LocalDate `json:"expiryDate"`
	}

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"expiryDate":"2025-03-31"}`), &w))
	require.NotNil(t, w.Expiry)
	assert.Equal(t, NewLocalDate(2025, time.March, 31), *w.Expiry)

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expiryDate":"2025-03-31"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"expiryDate":null}`), &w))
	assert.Nil(t, w.Expiry)

	assert.Error(t, json.Unmarshal([]byte(`{"expiryDate":"31/03/2025"}`), &w))
}

func TestLocalDate_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    LocalDate
		wantErr bool
	}{
		{name: "time drops clock", src: time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC), want: NewLocalDate(2024, 1, 2)},
		{name: "string", src: "2024-01-02", want: NewLocalDate(2024, 1, 2)},
		{name: "bytes", src: []byte("2024-01-02"), want: NewLocalDate(2024, 1, 2)},
		{name: "unsupported", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d LocalDate
			err := d.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}
