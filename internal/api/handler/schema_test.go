package handler

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

func TestDecodeAttachments(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("hello"))

	atts, err := decodeAttachments([]attachmentRequest{
		{FileName: " notes.txt ", Content: raw},
		{FileName: "skip.txt"},
		{Content: raw},
		{FileName: "pic.jpg", Content: "data:image/jpeg;base64," + raw},
	}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(atts) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(atts))
	}
	if atts[0].FileName != "notes.txt" || atts[0].ContentType != "" || string(atts[0].Content) != "hello" {
		t.Errorf("unexpected first attachment %+v", atts[0])
	}
	if atts[1].ContentType != "image/jpeg" || string(atts[1].Content) != "hello" {
		t.Errorf("unexpected data url attachment %+v", atts[1])
	}
}

func TestDecodeAttachments_Limits(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("0123456789"))

	if _, err := decodeAttachments([]attachmentRequest{{FileName: "a", Content: raw}}, 5); !errors.Is(err, domain.ErrInvalidAttachment) {
		t.Fatalf("expected size rejection, got %v", err)
	}
	if _, err := decodeAttachments([]attachmentRequest{{FileName: "a", Content: raw}}, 10); err != nil {
		t.Fatalf("exact limit must pass: %v", err)
	}
}

func TestValidator_UsesJSONFieldNames(t *testing.T) {
	err := NewValidator().Validate(&escrowIDCamel{})
	if err == nil || err.Error() != "escrowId is required" {
		t.Fatalf("unexpected validation error %v", err)
	}
}
