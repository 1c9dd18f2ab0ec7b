package browser

import (
	"bytes"
	"encoding/json"
	"fmt"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
	"github.com/voicesurf/voicesurf/internal/index"
	"github.com/voicesurf/voicesurf/internal/router"
)

// Inbound messages are externally tagged: a JSON object with exactly one
// key naming the variant.
//
//	{"FocusTab": {"tabId": 3}}
//	{"UpdateIndex": {"tabId": 3, "updated": [[0, "text"]], "removed": [1]}}
//	{"CloseTab": {"tabId": 3}}
const (
	variantFocusTab    = "FocusTab"
	variantUpdateIndex = "UpdateIndex"
	variantCloseTab    = "CloseTab"
)

type tabBody struct {
	TabID *uint64 `json:"tabId"`
}

type updateIndexBody struct {
	TabID   *uint64            `json:"tabId"`
	Updated []wireDocument     `json:"updated"`
	Removed []index.DocumentID `json:"removed"`
}

// wireDocument accepts the tuple form [id, "content"] and the object form
// {"id": id, "content": "..."}.
type wireDocument index.Document

func (d *wireDocument) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var tuple []json.RawMessage
		if err := json.Unmarshal(data, &tuple); err != nil {
			return err
		}
		if len(tuple) != 2 {
			return fmt.Errorf("document tuple has %d elements, want 2", len(tuple))
		}
		if bytes.Equal(bytes.TrimSpace(tuple[0]), []byte("null")) {
			return fmt.Errorf("document id is null")
		}
		if err := json.Unmarshal(tuple[0], &d.ID); err != nil {
			return fmt.Errorf("document id: %w", err)
		}
		if err := json.Unmarshal(tuple[1], &d.Content); err != nil {
			return fmt.Errorf("document content: %w", err)
		}
		return nil
	}

	var obj struct {
		ID      *index.DocumentID `json:"id"`
		Content string            `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.ID == nil {
		return fmt.Errorf("document id is missing")
	}
	d.ID = *obj.ID
	d.Content = obj.Content
	return nil
}

// DecodeMessage parses one inbound payload into a router event. Anything
// other than exactly one known variant with a tab id is a protocol
// violation.
func DecodeMessage(payload []byte) (router.Event, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, herrors.ProtocolError("malformed browser message", err)
	}
	if len(envelope) != 1 {
		return nil, herrors.ProtocolError(
			fmt.Sprintf("browser message must have exactly one variant, got %d", len(envelope)), nil)
	}

	var (
		variant string
		body    json.RawMessage
	)
	for k, v := range envelope {
		variant, body = k, v
	}

	switch variant {
	case variantFocusTab, variantCloseTab:
		var b tabBody
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, herrors.ProtocolError("malformed "+variant+" message", err)
		}
		if b.TabID == nil {
			return nil, herrors.ProtocolError(variant+" message without tabId", nil)
		}
		if variant == variantFocusTab {
			return router.FocusTab{TabID: router.TabID(*b.TabID)}, nil
		}
		return router.CloseTab{TabID: router.TabID(*b.TabID)}, nil

	case variantUpdateIndex:
		var b updateIndexBody
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, herrors.ProtocolError("malformed UpdateIndex message", err)
		}
		if b.TabID == nil {
			return nil, herrors.ProtocolError("UpdateIndex message without tabId", nil)
		}
		updated := make([]index.Document, len(b.Updated))
		for i, d := range b.Updated {
			updated[i] = index.Document(d)
		}
		return router.UpdateIndex{
			TabID:   router.TabID(*b.TabID),
			Updated: updated,
			Removed: b.Removed,
		}, nil

	default:
		return nil, herrors.ProtocolError(fmt.Sprintf("unknown browser message %q", variant), nil)
	}
}

// Result is the outbound message: the best documents for a tab's latest
// query.
type Result struct {
	TabID router.TabID       `json:"tabId"`
	Best  []index.DocumentID `json:"best"`
}
