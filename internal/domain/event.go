package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is the canonical form of a single post or reply.
// immutable once normalized. OccurredAt is UTC seconds since epoch.
type Event struct {
	ID         string
	OccurredAt int64
	IsReply    bool
	RawText    string
}

// OccurredAtTime returns the event instant as a UTC time.Time.
func (e Event) OccurredAtTime() time.Time {
	return time.Unix(e.OccurredAt, 0).UTC()
}

// RawRecord is an untrusted ingestion record. upstream connectors have
// shipped several field-name generations over time, so the shape carries
// every legacy variant explicitly instead of threading loose maps through
// the pipeline. unknown shapes are rejected here, at the boundary.
type RawRecord struct {
	// id variants, newest first.
	ID       string `json:"id,omitempty"`
	StatusID string `json:"status_id,omitempty"`

	// timestamp variants. resolution order: Timestamp, then TimestampStr,
	// then ActionTime (carried by reply/action marker records).
	Timestamp    int64  `json:"timestamp,omitempty"`
	TimestampStr string `json:"timestamp_str,omitempty"`
	ActionTime   int64  `json:"action_time,omitempty"`

	// reply detection inputs. the explicit flag wins over the action marker,
	// which wins over a leading "@" in the text. text alone never resolves a
	// timestamp.
	IsReply *bool  `json:"is_reply,omitempty"`
	Action  string `json:"action,omitempty"`
	Text    string `json:"text,omitempty"`
}

// actionReply is the action marker value that flags a record as a reply.
const actionReply = "reply"

// Normalize turns a raw record into a canonical Event.
// fails with ErrMalformedEvent when no timestamp field resolves to a
// positive integer, and with ErrFutureTimestamp when the resolved instant
// is after now. ids are taken from the newest populated variant; records
// with no id at all get a surrogate so downstream keying never collides.
func Normalize(raw RawRecord, now time.Time) (Event, error) {
	ts, ok := resolveTimestamp(raw)
	if !ok {
		return Event{}, ErrMalformedEvent
	}
	if ts > now.Unix() {
		return Event{}, ErrFutureTimestamp
	}

	id := raw.ID
	if id == "" {
		id = raw.StatusID
	}
	if id == "" {
		id = uuid.NewString()
	}

	return Event{
		ID:         id,
		OccurredAt: ts,
		IsReply:    resolveIsReply(raw),
		RawText:    raw.Text,
	}, nil
}

// resolveTimestamp applies the field precedence for legacy record shapes.
func resolveTimestamp(raw RawRecord) (int64, bool) {
	if raw.Timestamp > 0 {
		return raw.Timestamp, true
	}
	if raw.TimestampStr != "" {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(raw.TimestampStr), 10, 64); err == nil && parsed > 0 {
			return parsed, true
		}
	}
	if raw.ActionTime > 0 {
		return raw.ActionTime, true
	}
	return 0, false
}

// resolveIsReply applies the reply-detection precedence:
// explicit flag > action marker > leading "@" in text > false.
func resolveIsReply(raw RawRecord) bool {
	if raw.IsReply != nil {
		return *raw.IsReply
	}
	if raw.Action == actionReply {
		return true
	}
	return strings.HasPrefix(raw.Text, "@")
}

// BatchReport summarizes a batch normalization pass.
type BatchReport struct {
	Accepted  int
	Malformed int
	Future    int
}

// NormalizeBatch normalizes a full raw record set, skipping bad records
// instead of aborting. aggregation is a fold that tolerates per-record skip.
func NormalizeBatch(raws []RawRecord, now time.Time) ([]Event, BatchReport) {
	events := make([]Event, 0, len(raws))
	var report BatchReport

	for _, raw := range raws {
		event, err := Normalize(raw, now)
		switch err {
		case nil:
			events = append(events, event)
			report.Accepted++
		case ErrFutureTimestamp:
			report.Future++
		default:
			report.Malformed++
		}
	}

	return events, report
}
