package talon

import (
	"encoding/json"
	"fmt"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
	"github.com/voicesurf/voicesurf/internal/router"
)

// Outbound file contents:
//
//	{"UpdateTalonRequest": {"tabId": 3, "words": ["another", "example"]}}
//
// Inbound file contents:
//
//	{"Query": {"query": "example", "tabId": 3}}
type updateEnvelope struct {
	UpdateTalonRequest updateBody `json:"UpdateTalonRequest"`
}

type updateBody struct {
	TabID router.TabID `json:"tabId"`
	Words []string     `json:"words"`
}

type queryBody struct {
	Query *string       `json:"query"`
	TabID *router.TabID `json:"tabId"`
}

// EncodeUpdate renders a vocabulary update as the file Talon reads.
func EncodeUpdate(u router.VocabularyUpdate) ([]byte, error) {
	words := u.Words
	if words == nil {
		words = []string{}
	}
	return json.Marshal(updateEnvelope{
		UpdateTalonRequest: updateBody{TabID: u.TabID, Words: words},
	})
}

// DecodeQuery parses the query file. ok is false when Talon has not yet
// associated the query with a tab (tabId null). Anything that is not a
// single Query variant is a protocol violation.
func DecodeQuery(data []byte) (q router.Query, ok bool, err error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return router.Query{}, false, herrors.ProtocolError("malformed Talon query file", err)
	}
	body, found := envelope["Query"]
	if !found || len(envelope) != 1 {
		return router.Query{}, false, herrors.ProtocolError(
			fmt.Sprintf("Talon query file must hold exactly one Query variant, got %d keys", len(envelope)), nil)
	}

	var b queryBody
	if err := json.Unmarshal(body, &b); err != nil {
		return router.Query{}, false, herrors.ProtocolError("malformed Talon Query", err)
	}
	if b.Query == nil {
		return router.Query{}, false, herrors.ProtocolError("Talon Query without query text", nil)
	}
	if b.TabID == nil {
		return router.Query{Text: *b.Query}, false, nil
	}
	return router.Query{TabID: *b.TabID, Text: *b.Query}, true, nil
}
