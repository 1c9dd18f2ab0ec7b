package browser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
	"github.com/voicesurf/voicesurf/internal/index"
	"github.com/voicesurf/voicesurf/internal/router"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    router.Event
	}{
		{
			name:    "focus",
			payload: `{"FocusTab":{"tabId":3}}`,
			want:    router.FocusTab{TabID: 3},
		},
		{
			name:    "close",
			payload: `{"CloseTab":{"tabId":12}}`,
			want:    router.CloseTab{TabID: 12},
		},
		{
			name:    "update with tuples",
			payload: `{"UpdateIndex":{"tabId":3,"updated":[[0,"this is sample"],[1,"another"]],"removed":[7]}}`,
			want: router.UpdateIndex{
				TabID:   3,
				Updated: []index.Document{{ID: 0, Content: "this is sample"}, {ID: 1, Content: "another"}},
				Removed: []index.DocumentID{7},
			},
		},
		{
			name:    "update with objects",
			payload: `{"UpdateIndex":{"tabId":3,"updated":[{"id":4,"content":"hi"}],"removed":[]}}`,
			want: router.UpdateIndex{
				TabID:   3,
				Updated: []index.Document{{ID: 4, Content: "hi"}},
				Removed: []index.DocumentID{},
			},
		},
		{
			name:    "update without lists",
			payload: `{"UpdateIndex":{"tabId":3}}`,
			want:    router.UpdateIndex{TabID: 3, Updated: []index.Document{}},
		},
		{
			name:    "extra fields ignored",
			payload: `{"FocusTab":{"tabId":3,"url":"https://example.com"}}`,
			want:    router.FocusTab{TabID: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMessage([]byte(tt.payload))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeMessage_ProtocolViolations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{"FocusTab":`},
		{"not an object", `[1,2]`},
		{"no variant", `{}`},
		{"two variants", `{"FocusTab":{"tabId":1},"CloseTab":{"tabId":1}}`},
		{"unknown variant", `{"Reload":{"tabId":1}}`},
		{"missing tab id", `{"FocusTab":{}}`},
		{"negative tab id", `{"CloseTab":{"tabId":-1}}`},
		{"update missing tab id", `{"UpdateIndex":{"updated":[]}}`},
		{"null document id", `{"UpdateIndex":{"tabId":1,"updated":[[null,"x"]]}}`},
		{"short tuple", `{"UpdateIndex":{"tabId":1,"updated":[[1]]}}`},
		{"object without id", `{"UpdateIndex":{"tabId":1,"updated":[{"content":"x"}]}}`},
		{"content not string", `{"UpdateIndex":{"tabId":1,"updated":[[1,2]]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(tt.payload))

			require.Error(t, err)
			assert.Equal(t, herrors.ErrCodeProtocolViolation, herrors.GetCode(err))
		})
	}
}

func TestResult_JSON(t *testing.T) {
	data, err := json.Marshal(Result{TabID: 3, Best: []index.DocumentID{1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tabId":3,"best":[1]}`, string(data))

	data, err = json.Marshal(Result{TabID: 3, Best: index.Rank(nil, 10)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tabId":3,"best":[]}`, string(data))
}
