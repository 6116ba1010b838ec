package batch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    []string
		wantErr bool
	}{
		{name: "single string", input: "item1", want: []string{"item1"}},
		{name: "array of strings", input: []interface{}{"id1", "id2", "id3"}, want: []string{"id1", "id2", "id3"}},
		{name: "trims values", input: []interface{}{" id1 ", "id2"}, want: []string{"id1", "id2"}},
		{name: "drops duplicates", input: []interface{}{"id1", "id2", "id1"}, want: []string{"id1", "id2"}},
		{name: "JSON string array", input: `["id1", "id2"]`, want: []string{"id1", "id2"}},
		{name: "invalid JSON string", input: `[invalid json`, want: []string{`[invalid json`}},
		{name: "string starting with bracket", input: `[bio] lait`, want: []string{`[bio] lait`}},
		{name: "nil input", input: nil, wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "blank string", input: "   ", wantErr: true},
		{name: "empty array", input: []interface{}{}, wantErr: true},
		{name: "JSON string empty array", input: `[]`, wantErr: true},
		{name: "array with non-string", input: []interface{}{"id1", 123}, wantErr: true},
		{name: "array with empty string", input: []interface{}{"id1", ""}, wantErr: true},
		{name: "invalid type", input: 123, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "itemIds")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "itemIds")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		NewSuccessResult("id1", map[string]string{"name": "Lait"}),
		NewSuccessResult("id2", nil),
		NewErrorResult("id3", errors.New("item not found")),
	}

	var br BatchResult
	require.NoError(t, json.Unmarshal([]byte(FormatResults(results)), &br))
	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 2, br.Successful)
	assert.Equal(t, 1, br.Failed)
	require.Len(t, br.Results, 3)
	assert.Equal(t, "item not found", br.Results[2].Error)
}

func TestProcessBatch(t *testing.T) {
	fn := func(_ context.Context, id string) (any, error) {
		if id == "id2" {
			return nil, errors.New("failed to process id2")
		}
		return "processed " + id, nil
	}

	results := ProcessBatch(context.Background(), []string{"id1", "id2", "id3"}, fn)
	require.Len(t, results, 3)

	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, "processed id1", results[0].Result)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Equal(t, "failed to process id2", results[1].Error)
	assert.Equal(t, StatusSuccess, results[2].Status)
}

func TestProcessBatch_StopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string
	fn := func(_ context.Context, id string) (any, error) {
		calls = append(calls, id)
		cancel()
		return nil, nil
	}

	results := ProcessBatch(ctx, []string{"id1", "id2"}, fn)
	assert.Equal(t, []string{"id1"}, calls)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Equal(t, context.Canceled.Error(), results[1].Error)
}
