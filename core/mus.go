package core

// Hand-maintained MUS serializers for the stored record types.
// Field order is part of the on-disk format; append new fields at the end.

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// IDMUS serializes an ID.
var IDMUS = idMUS{}

// DocumentMUS serializes a Document.
var DocumentMUS = documentMUS{}

// SummaryMUS serializes a Summary.
var SummaryMUS = summaryMUS{}

// RuleSetMUS serializes a RuleSet.
var RuleSetMUS = ruleSetMUS{}

// PipelineRunMUS serializes a PipelineRun.
var PipelineRunMUS = pipelineRunMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

// Timestamps are stored as microseconds since the Unix epoch.
// The zero time round-trips as the zero time.

func marshalTime(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

type documentMUS struct{}

func (documentMUS) Marshal(doc Document, bs []byte) (n int) {
	n = IDMUS.Marshal(doc.Id, bs)
	n += ord.String.Marshal(doc.Filename, bs[n:])
	n += ord.String.Marshal(doc.MediaType, bs[n:])
	n += ord.String.Marshal(string(doc.Type), bs[n:])
	n += varint.Int64.Marshal(doc.ByteSize, bs[n:])
	n += ord.String.Marshal(doc.ContentHash, bs[n:])
	n += ord.String.Marshal(doc.RawKey, bs[n:])
	n += ord.String.Marshal(doc.TextKey, bs[n:])
	n += varint.Int.Marshal(int(doc.Status), bs[n:])
	n += varint.Int.Marshal(doc.Sequence, bs[n:])
	n += varint.Int.Marshal(doc.StageAttempt, bs[n:])
	n += ord.String.Marshal(doc.LastError, bs[n:])
	n += marshalTime(doc.CreatedAt, bs[n:])
	n += marshalTime(doc.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (doc Document, n int, err error) {
	var n1 int
	if doc.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if doc.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if doc.MediaType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var typ string
	if typ, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	doc.Type = DocumentType(typ)
	n += n1
	if doc.ByteSize, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if doc.ContentHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if doc.RawKey, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if doc.TextKey, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var status int
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	doc.Status = DocumentStatus(status)
	n += n1
	if doc.Sequence, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if doc.StageAttempt, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if doc.LastError, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if doc.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if doc.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (documentMUS) Size(doc Document) (size int) {
	size = IDMUS.Size(doc.Id)
	size += ord.String.Size(doc.Filename)
	size += ord.String.Size(doc.MediaType)
	size += ord.String.Size(string(doc.Type))
	size += varint.Int64.Size(doc.ByteSize)
	size += ord.String.Size(doc.ContentHash)
	size += ord.String.Size(doc.RawKey)
	size += ord.String.Size(doc.TextKey)
	size += varint.Int.Size(int(doc.Status))
	size += varint.Int.Size(doc.Sequence)
	size += varint.Int.Size(doc.StageAttempt)
	size += ord.String.Size(doc.LastError)
	size += sizeTime(doc.CreatedAt)
	size += sizeTime(doc.UpdatedAt)
	return size
}

type summaryMUS struct{}

func (summaryMUS) Marshal(s Summary, bs []byte) (n int) {
	n = IDMUS.Marshal(s.Id, bs)
	n += IDMUS.Marshal(s.DocumentId, bs[n:])
	n += varint.Int.Marshal(s.Sequence, bs[n:])
	n += ord.String.Marshal(s.Provider, bs[n:])
	n += ord.String.Marshal(s.Text, bs[n:])
	n += marshalTime(s.CreatedAt, bs[n:])
	return n
}

func (summaryMUS) Unmarshal(bs []byte) (s Summary, n int, err error) {
	var n1 int
	if s.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if s.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.Sequence, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.Provider, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (summaryMUS) Size(s Summary) (size int) {
	size = IDMUS.Size(s.Id)
	size += IDMUS.Size(s.DocumentId)
	size += varint.Int.Size(s.Sequence)
	size += ord.String.Size(s.Provider)
	size += ord.String.Size(s.Text)
	size += sizeTime(s.CreatedAt)
	return size
}

type ruleSetMUS struct{}

func (ruleSetMUS) Marshal(rs RuleSet, bs []byte) (n int) {
	n = IDMUS.Marshal(rs.Id, bs)
	n += IDMUS.Marshal(rs.DocumentId, bs[n:])
	n += varint.Int.Marshal(rs.Sequence, bs[n:])
	n += ord.String.Marshal(rs.Provider, bs[n:])
	n += varint.Int.Marshal(len(rs.Rules), bs[n:])
	for _, rule := range rs.Rules {
		n += ord.String.Marshal(rule.Text, bs[n:])
		n += ord.String.Marshal(rule.Category, bs[n:])
		n += raw.Float64.Marshal(rule.Confidence, bs[n:])
	}
	n += marshalTime(rs.CreatedAt, bs[n:])
	return n
}

func (ruleSetMUS) Unmarshal(bs []byte) (rs RuleSet, n int, err error) {
	var n1 int
	if rs.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if rs.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if rs.Sequence, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if rs.Provider, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var count int
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if count > 0 {
		rs.Rules = make([]Rule, count)
		for i := 0; i < count; i++ {
			if rs.Rules[i].Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
			if rs.Rules[i].Category, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
			if rs.Rules[i].Confidence, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
		}
	}
	if rs.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (ruleSetMUS) Size(rs RuleSet) (size int) {
	size = IDMUS.Size(rs.Id)
	size += IDMUS.Size(rs.DocumentId)
	size += varint.Int.Size(rs.Sequence)
	size += ord.String.Size(rs.Provider)
	size += varint.Int.Size(len(rs.Rules))
	for _, rule := range rs.Rules {
		size += ord.String.Size(rule.Text)
		size += ord.String.Size(rule.Category)
		size += raw.Float64.Size(rule.Confidence)
	}
	size += sizeTime(rs.CreatedAt)
	return size
}

type pipelineRunMUS struct{}

func (pipelineRunMUS) Marshal(run PipelineRun, bs []byte) (n int) {
	n = IDMUS.Marshal(run.DocumentId, bs)
	n += varint.Int.Marshal(run.Sequence, bs[n:])
	n += varint.Int.Marshal(int(run.Stage), bs[n:])
	n += varint.Int.Marshal(run.Attempt, bs[n:])
	n += varint.Int.Marshal(int(run.Outcome), bs[n:])
	n += ord.String.Marshal(run.Error, bs[n:])
	n += marshalTime(run.StartedAt, bs[n:])
	n += marshalTime(run.FinishedAt, bs[n:])
	n += marshalTime(run.LeaseExpiry, bs[n:])
	return n
}

func (pipelineRunMUS) Unmarshal(bs []byte) (run PipelineRun, n int, err error) {
	var n1 int
	if run.DocumentId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if run.Sequence, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var stage int
	if stage, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	run.Stage = Stage(stage)
	n += n1
	if run.Attempt, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var outcome int
	if outcome, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	run.Outcome = RunOutcome(outcome)
	n += n1
	if run.Error, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if run.StartedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if run.FinishedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if run.LeaseExpiry, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (pipelineRunMUS) Size(run PipelineRun) (size int) {
	size = IDMUS.Size(run.DocumentId)
	size += varint.Int.Size(run.Sequence)
	size += varint.Int.Size(int(run.Stage))
	size += varint.Int.Size(run.Attempt)
	size += varint.Int.Size(int(run.Outcome))
	size += ord.String.Size(run.Error)
	size += sizeTime(run.StartedAt)
	size += sizeTime(run.FinishedAt)
	size += sizeTime(run.LeaseExpiry)
	return size
}
