package domain

import (
	"errors"
	"testing"
	"time"
)

func boolPtr(b bool) *bool { return &b }

func TestNormalize_TimestampResolutionOrder(t *testing.T) {
	now := time.Unix(2000000000, 0).UTC()

	tests := []struct {
		name     string
		raw      RawRecord
		expected int64
	}{
		{"explicit_numeric_wins", RawRecord{ID: "a", Timestamp: 1700000000, TimestampStr: "1600000000", ActionTime: 1500000000}, 1700000000},
		{"string_encoded_second", RawRecord{ID: "b", TimestampStr: "1600000000", ActionTime: 1500000000}, 1600000000},
		{"string_with_whitespace", RawRecord{ID: "b2", TimestampStr: " 1600000001 "}, 1600000001},
		{"action_marker_last", RawRecord{ID: "c", ActionTime: 1500000000}, 1500000000},
		{"bad_string_falls_through", RawRecord{ID: "d", TimestampStr: "not-a-number", ActionTime: 1500000000}, 1500000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Normalize(tt.raw, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event.OccurredAt != tt.expected {
				t.Errorf("expected timestamp %d, got %d", tt.expected, event.OccurredAt)
			}
		})
	}
}

func TestNormalize_MalformedEvent(t *testing.T) {
	now := time.Unix(2000000000, 0).UTC()

	tests := []struct {
		name string
		raw  RawRecord
	}{
		{"empty_record", RawRecord{}},
		{"zero_timestamp", RawRecord{ID: "a", Timestamp: 0}},
		{"negative_timestamp", RawRecord{ID: "a", Timestamp: -5}},
		{"unparseable_string_only", RawRecord{ID: "a", TimestampStr: "yesterday"}},
		{"text_never_infers_timestamp", RawRecord{ID: "a", Text: "posted at 1700000000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, now)
			if !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("expected ErrMalformedEvent, got %v", err)
			}
		})
	}
}

func TestNormalize_FutureTimestampRejected(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	_, err := Normalize(RawRecord{ID: "a", Timestamp: now.Unix() + 60}, now)
	if !errors.Is(err, ErrFutureTimestamp) {
		t.Fatalf("expected ErrFutureTimestamp, got %v", err)
	}

	// exactly now is not future
	event, err := Normalize(RawRecord{ID: "a", Timestamp: now.Unix()}, now)
	if err != nil {
		t.Fatalf("timestamp equal to now should be accepted, got %v", err)
	}
	if event.OccurredAt != now.Unix() {
		t.Errorf("expected %d, got %d", now.Unix(), event.OccurredAt)
	}
}

func TestNormalize_ReplyDetectionPrecedence(t *testing.T) {
	now := time.Unix(2000000000, 0).UTC()

	tests := []struct {
		name     string
		raw      RawRecord
		expected bool
	}{
		{"explicit_flag_true", RawRecord{Timestamp: 1, IsReply: boolPtr(true), Text: "plain"}, true},
		{"explicit_flag_overrides_marker", RawRecord{Timestamp: 1, IsReply: boolPtr(false), Action: "reply", Text: "@someone hi"}, false},
		{"action_marker", RawRecord{Timestamp: 1, Action: "reply"}, true},
		{"text_at_prefix", RawRecord{Timestamp: 1, Text: "@someone hi"}, true},
		{"default_false", RawRecord{Timestamp: 1, Text: "plain post"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Normalize(tt.raw, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event.IsReply != tt.expected {
				t.Errorf("expected IsReply=%v, got %v", tt.expected, event.IsReply)
			}
		})
	}
}

func TestNormalize_IDFallbacks(t *testing.T) {
	now := time.Unix(2000000000, 0).UTC()

	event, err := Normalize(RawRecord{StatusID: "legacy-7", Timestamp: 1}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != "legacy-7" {
		t.Errorf("expected legacy id to be used, got %q", event.ID)
	}

	event, err = Normalize(RawRecord{Timestamp: 1}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID == "" {
		t.Error("expected surrogate id for record without any id")
	}
}

func TestNormalizeBatch_SkipsBadRecordsWithoutAborting(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	raws := []RawRecord{
		{ID: "ok-1", Timestamp: 1600000000},
		{ID: "malformed"},
		{ID: "future", Timestamp: now.Unix() + 100},
		{ID: "ok-2", TimestampStr: "1600000500", Action: "reply"},
	}

	events, report := NormalizeBatch(raws, now)

	if len(events) != 2 {
		t.Fatalf("expected 2 accepted events, got %d", len(events))
	}
	if report.Accepted != 2 || report.Malformed != 1 || report.Future != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if !events[1].IsReply {
		t.Error("expected second accepted event to be a reply")
	}
}
