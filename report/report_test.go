/*************************************************************************
 * Copyright 2024 dfir-oss. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/dfir-oss/tgcarve/artifact"
)

func TestEncodeOmitsUnrecoveredFieldsAsNull(t *testing.T) {
	alice := &artifact.User{ID: 2, HasID: true, Name: "Alice", HasName: true}
	acc := &artifact.Account{
		Users: []*artifact.User{alice},
		Conversations: []artifact.Conversation{
			{
				Kind:  artifact.KindIndividual,
				ID:    1,
				Name:  "Alice",
				Users: []*artifact.User{alice},
				Messages: []*artifact.Message{
					{Text: "hi", HasText: true, Date: time.Unix(1700000000, 0).UTC(), Sender: alice},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, "11111111-1111-1111-1111-111111111111", acc); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}

	if parsed["owner"] != nil {
		t.Fatalf("expected null owner, got %v", parsed["owner"])
	}

	convs := parsed["conversations"].([]any)
	msgs := convs[0].(map[string]any)["messages"].([]any)
	msg := msgs[0].(map[string]any)
	if msg["date"] != "2023-11-14T22:13:20Z" {
		t.Fatalf("unexpected date: %v", msg["date"])
	}
	if msg["attachment"] != nil {
		t.Fatalf("expected null attachment, got %v", msg["attachment"])
	}
}
