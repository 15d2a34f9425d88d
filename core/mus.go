package core

import (
	"errors"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted domain types. Field order is
// the wire format; changing it breaks every existing database.

var errInvalidLength = errors.New("invalid collection length")

// IDMUS serializes IDs as varints.
var IDMUS = idMUS{}

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

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMUS serializes timestamps with microsecond precision.
type timeMUS struct{}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	usec, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(usec).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeMUS) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

// stringSliceMUS serializes a string slice as a varint length followed by the
// elements.
type stringSliceMUS struct{}

func (stringSliceMUS) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringSliceMUS) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	// Every element occupies at least one byte, so a length beyond the
	// remaining buffer can only come from a corrupt record. Checking before
	// the allocation keeps a bogus huge count from panicking makeslice.
	if length < 0 || length > len(bs)-n {
		return nil, n, errInvalidLength
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]string, length)
	var n1 int
	for i := range v {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (stringSliceMUS) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

// idSliceMUS serializes an ID slice as a varint length followed by the elements.
type idSliceMUS struct{}

func (idSliceMUS) Marshal(v []ID, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, id := range v {
		n += IDMUS.Marshal(id, bs[n:])
	}
	return n
}

func (idSliceMUS) Unmarshal(bs []byte) (v []ID, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > len(bs)-n {
		return nil, n, errInvalidLength
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]ID, length)
	var n1 int
	for i := range v {
		v[i], n1, err = IDMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (idSliceMUS) Size(v []ID) (size int) {
	size = varint.Int.Size(len(v))
	for _, id := range v {
		size += IDMUS.Size(id)
	}
	return size
}

// float32MUS serializes a float32 through its IEEE-754 bits.
type float32MUS struct{}

func (float32MUS) Marshal(f float32, bs []byte) int {
	return varint.Uint32.Marshal(math.Float32bits(f), bs)
}

func (float32MUS) Unmarshal(bs []byte) (float32, int, error) {
	bits, n, err := varint.Uint32.Unmarshal(bs)
	return math.Float32frombits(bits), n, err
}

func (float32MUS) Size(f float32) int {
	return varint.Uint32.Size(math.Float32bits(f))
}

// ArticleMUS serializes Articles.
var ArticleMUS = articleMUS{}

type articleMUS struct {
	times timeMUS
}

func (m articleMUS) Marshal(a Article, bs []byte) (n int) {
	n = IDMUS.Marshal(a.Id, bs)
	n += ord.String.Marshal(a.Title, bs[n:])
	n += ord.String.Marshal(a.Content, bs[n:])
	n += ord.String.Marshal(a.Date, bs[n:])
	n += ord.String.Marshal(a.Source, bs[n:])
	n += m.times.Marshal(a.InsertedAt, bs[n:])
	n += m.times.Marshal(a.UpdatedAt, bs[n:])
	return n
}

func (m articleMUS) Unmarshal(bs []byte) (a Article, n int, err error) {
	var n1 int
	if a.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if a.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return a, n + n1, err
	}
	n += n1
	if a.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return a, n + n1, err
	}
	n += n1
	if a.Date, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return a, n + n1, err
	}
	n += n1
	if a.Source, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return a, n + n1, err
	}
	n += n1
	if a.InsertedAt, n1, err = m.times.Unmarshal(bs[n:]); err != nil {
		return a, n + n1, err
	}
	n += n1
	if a.UpdatedAt, n1, err = m.times.Unmarshal(bs[n:]); err != nil {
		return a, n + n1, err
	}
	n += n1
	return a, n, nil
}

func (m articleMUS) Size(a Article) int {
	return IDMUS.Size(a.Id) +
		ord.String.Size(a.Title) +
		ord.String.Size(a.Content) +
		ord.String.Size(a.Date) +
		ord.String.Size(a.Source) +
		m.times.Size(a.InsertedAt) +
		m.times.Size(a.UpdatedAt)
}

// StoryMUS serializes Stories.
var StoryMUS = storyMUS{}

type storyMUS struct {
	members idSliceMUS
}

func (m storyMUS) Marshal(s Story, bs []byte) (n int) {
	n = IDMUS.Marshal(s.Id, bs)
	n += IDMUS.Marshal(s.RepresentativeId, bs[n:])
	n += m.members.Marshal(s.MemberIds, bs[n:])
	return n
}

func (m storyMUS) Unmarshal(bs []byte) (s Story, n int, err error) {
	var n1 int
	if s.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if s.RepresentativeId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.MemberIds, n1, err = m.members.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	return s, n, nil
}

func (m storyMUS) Size(s Story) int {
	return IDMUS.Size(s.Id) +
		IDMUS.Size(s.RepresentativeId) +
		m.members.Size(s.MemberIds)
}

// EntityTagsMUS serializes EntityTags.
var EntityTagsMUS = entityTagsMUS{}

type entityTagsMUS struct {
	strings stringSliceMUS
}

func (m entityTagsMUS) Marshal(t EntityTags, bs []byte) (n int) {
	n = IDMUS.Marshal(t.ArticleId, bs)
	n += m.strings.Marshal(t.Companies, bs[n:])
	n += m.strings.Marshal(t.Sectors, bs[n:])
	n += m.strings.Marshal(t.Regulators, bs[n:])
	return n
}

func (m entityTagsMUS) Unmarshal(bs []byte) (t EntityTags, n int, err error) {
	var n1 int
	if t.ArticleId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if t.Companies, n1, err = m.strings.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.Sectors, n1, err = m.strings.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.Regulators, n1, err = m.strings.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	return t, n, nil
}

func (m entityTagsMUS) Size(t EntityTags) int {
	return IDMUS.Size(t.ArticleId) +
		m.strings.Size(t.Companies) +
		m.strings.Size(t.Sectors) +
		m.strings.Size(t.Regulators)
}

// ImpactReportMUS serializes ImpactReports.
var ImpactReportMUS = impactReportMUS{}

type impactReportMUS struct {
	floats float32MUS
}

func (m impactReportMUS) Marshal(r ImpactReport, bs []byte) (n int) {
	n = IDMUS.Marshal(r.ArticleId, bs)
	n += varint.Int.Marshal(len(r.Stocks), bs[n:])
	for _, s := range r.Stocks {
		n += ord.String.Marshal(s.Symbol, bs[n:])
		n += m.floats.Marshal(s.Confidence, bs[n:])
		n += ord.String.Marshal(s.Kind, bs[n:])
		n += ord.String.Marshal(s.Trigger, bs[n:])
	}
	return n
}

func (m impactReportMUS) Unmarshal(bs []byte) (r ImpactReport, n int, err error) {
	var n1 int
	if r.ArticleId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	var length int
	if length, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if length < 0 || length > len(bs)-n {
		return r, n, errInvalidLength
	}
	if length == 0 {
		return r, n, nil
	}
	r.Stocks = make([]ImpactedStock, length)
	for i := range r.Stocks {
		if r.Stocks[i].Symbol, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return r, n + n1, err
		}
		n += n1
		if r.Stocks[i].Confidence, n1, err = m.floats.Unmarshal(bs[n:]); err != nil {
			return r, n + n1, err
		}
		n += n1
		if r.Stocks[i].Kind, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return r, n + n1, err
		}
		n += n1
		if r.Stocks[i].Trigger, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return r, n + n1, err
		}
		n += n1
	}
	return r, n, nil
}

func (m impactReportMUS) Size(r ImpactReport) int {
	size := IDMUS.Size(r.ArticleId) + varint.Int.Size(len(r.Stocks))
	for _, s := range r.Stocks {
		size += ord.String.Size(s.Symbol) +
			m.floats.Size(s.Confidence) +
			ord.String.Size(s.Kind) +
			ord.String.Size(s.Trigger)
	}
	return size
}
