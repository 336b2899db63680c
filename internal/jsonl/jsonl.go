// Package jsonl parses line-delimited bead records as rigs publish them.
// One physical line is one logical record; a bad line is reported and
// skipped, never aborting the rest of the file.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/convoy/internal/model"
)

// maxLineBytes bounds a single record line. Descriptions are free text,
// so the default scanner token size is too small.
const maxLineBytes = 1 << 20

// Reason classifies why a record line was rejected.
type Reason string

const (
	ReasonMalformedJSON Reason = "malformed-json"
	ReasonMissingField  Reason = "missing-required-field"
	ReasonUnknownStatus Reason = "unknown-status"
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	return string(r)
}

// RecordError reports one rejected line. It is recoverable: the decoder
// stays usable and the caller moves on to the next line.
type RecordError struct {
	Line   int    `json:"line"`
	Reason Reason `json:"reason"`
	Err    error  `json:"-"`
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// record is the permissive wire shape. Fields decode softly so that
// extra fields added by a rig's own tooling never break the parse;
// strictness lives in the projection to model.Bead.
type record struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Priority    json.RawMessage `json:"priority"`
	IssueType   string          `json:"issue_type"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	Assignee    string          `json:"assignee"`
	Labels      []string        `json:"labels"`
	DependsOn   []string        `json:"depends_on"`
	Blocks      []string        `json:"blocks"`
	Notes       string          `json:"notes"`
}

// Decoder streams beads out of line-delimited input. It is finite and
// not restartable; create a new one per fetch.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder returns a decoder reading records from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Decoder{sc: sc}
}

// Next returns the next well-formed bead. Rejected lines come back as
// *RecordError and the decoder remains usable; io.EOF ends the stream.
// Blank lines are skipped silently.
func (d *Decoder) Next() (*model.Bead, error) {
	for d.sc.Scan() {
		d.line++
		raw := bytes.TrimSpace(d.sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		return decodeLine(d.line, raw)
	}
	if err := d.sc.Err(); err != nil {
		return nil, fmt.Errorf("scan line %d: %w", d.line+1, err)
	}
	return nil, io.EOF
}

// Line returns the number of the last physical line consumed.
func (d *Decoder) Line() int {
	return d.line
}

// Result collects the outcome of parsing one rig's records.
type Result struct {
	Beads  []*model.Bead
	Errors []*RecordError
}

// Parse consumes all of r. Rejected lines accumulate in Result.Errors;
// only a read failure of the underlying stream returns a non-nil error,
// alongside whatever parsed before it.
func Parse(r io.Reader) (*Result, error) {
	res := &Result{}
	dec := NewDecoder(r)
	for {
		b, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return res, nil
			}
			var re *RecordError
			if errors.As(err, &re) {
				res.Errors = append(res.Errors, re)
				continue
			}
			return res, err
		}
		res.Beads = append(res.Beads, b)
	}
}

func decodeLine(line int, raw []byte) (*model.Bead, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &RecordError{Line: line, Reason: ReasonMalformedJSON, Err: err}
	}
	return rec.bead(line)
}

// bead projects the permissive record into the strict model shape.
func (rec *record) bead(line int) (*model.Bead, error) {
	if rec.Status == "" {
		return nil, &RecordError{Line: line, Reason: ReasonMissingField, Err: errors.New("status is required")}
	}
	status := model.Status(rec.Status)
	if !status.IsValid() {
		return nil, &RecordError{Line: line, Reason: ReasonUnknownStatus, Err: fmt.Errorf("status %q", rec.Status)}
	}

	priority, err := rec.priority()
	if err != nil {
		return nil, &RecordError{Line: line, Reason: err.reason, Err: err.err}
	}

	createdAt, err := parseTime("created_at", rec.CreatedAt)
	if err != nil {
		return nil, &RecordError{Line: line, Reason: err.reason, Err: err.err}
	}
	updatedAt, err := parseTime("updated_at", rec.UpdatedAt)
	if err != nil {
		return nil, &RecordError{Line: line, Reason: err.reason, Err: err.err}
	}

	b := &model.Bead{
		ID:          model.BeadID(rec.ID),
		Title:       rec.Title,
		Description: rec.Description,
		Status:      status,
		Priority:    priority,
		IssueType:   model.IssueType(rec.IssueType),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		Assignee:    rec.Assignee,
		Labels:      rec.Labels,
		DependsOn:   toBeadIDs(rec.DependsOn),
		Blocks:      toBeadIDs(rec.Blocks),
		Notes:       rec.Notes,
	}
	b.Normalize()
	if verr := b.Validate(); verr != nil {
		return nil, &RecordError{Line: line, Reason: ReasonMissingField, Err: verr}
	}
	return b, nil
}

// fieldError pairs a projection failure with the reason it maps to.
type fieldError struct {
	reason Reason
	err    error
}

// priority accepts the integer wire form as well as "P2"/"p2" strings.
func (rec *record) priority() (model.Priority, *fieldError) {
	if len(rec.Priority) == 0 {
		return 0, &fieldError{ReasonMissingField, errors.New("priority is required")}
	}
	var n int
	if err := json.Unmarshal(rec.Priority, &n); err == nil {
		p := model.Priority(n)
		if !p.IsValid() {
			return 0, &fieldError{ReasonMalformedJSON, fmt.Errorf("priority %d out of range P0..P4", n)}
		}
		return p, nil
	}
	var s string
	if err := json.Unmarshal(rec.Priority, &s); err != nil {
		return 0, &fieldError{ReasonMalformedJSON, fmt.Errorf("priority %s", rec.Priority)}
	}
	p, err := model.ParsePriority(s)
	if err != nil {
		return 0, &fieldError{ReasonMalformedJSON, err}
	}
	return p, nil
}

func parseTime(field, value string) (time.Time, *fieldError) {
	if value == "" {
		// Zero time; Validate reports the missing field.
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &fieldError{ReasonMalformedJSON, fmt.Errorf("parse %s: %w", field, err)}
	}
	return t, nil
}

func toBeadIDs(ids []string) []model.BeadID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]model.BeadID, len(ids))
	for i, id := range ids {
		out[i] = model.BeadID(id)
	}
	return out
}
