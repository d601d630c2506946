package lmstudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelList(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
		wantErr bool
	}{
		{"missing data", `{"object":"list"}`, []string{}, false},
		{"null data", `{"data":null}`, []string{}, false},
		{"order preserved", `{"data":[{"id":"c"},{"id":"a"},{"id":"b"}]}`, []string{"c", "a", "b"}, false},
		{"record without id", `{"data":[{"object":"model"}]}`, []string{""}, false},
		{"data not an array", `{"data":{"id":"x"}}`, nil, true},
		{"record not an object", `{"data":["x"]}`, nil, true},
		{"truncated", `{"data":[`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models, err := parseModelList([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(models))
			for _, m := range models {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestParseModelList_OptionalFields(t *testing.T) {
	models, err := parseModelList([]byte(`{"data":[
		{"id":"a","root":"","size":"big"},
		{"id":"b","root":"/m/b","size_bytes":10,"size":20}
	]}`))
	require.NoError(t, err)
	require.Len(t, models, 2)

	assert.Nil(t, models[0].Path, "empty root is omitted")
	assert.Nil(t, models[0].Size, "non numeric size is omitted")

	require.NotNil(t, models[1].Size)
	assert.Equal(t, int64(10), *models[1].Size, "size_bytes wins over size")
	assert.Equal(t, "/m/b", *models[1].Path)
}
