package storage

import (
	"testing"
	"time"

	"github.com/finsight/newsdesk/core"
	"github.com/mus-format/mus-go/varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	article := &core.Article{
		Id:         42,
		Title:      "HDFC Bank profit rises",
		Content:    "Quarterly results beat street estimates.",
		Date:       "2024-03-11",
		Source:     "wire",
		InsertedAt: now,
		UpdatedAt:  now,
	}

	data := MarshalArticle(article)
	decoded, err := UnmarshalArticle(data)
	require.NoError(t, err)
	assert.Equal(t, article, decoded)
}

func TestStoryRoundTrip(t *testing.T) {
	story := &core.Story{
		Id:               1,
		RepresentativeId: 7,
		MemberIds:        []core.ID{7, 12, 99},
	}

	data := MarshalStory(story)
	decoded, err := UnmarshalStory(data)
	require.NoError(t, err)
	assert.Equal(t, story, decoded)
}

func TestEntityTagsRoundTrip(t *testing.T) {
	tags := &core.EntityTags{
		ArticleId:  42,
		Companies:  []string{"HDFC Bank", "ICICI Bank"},
		Sectors:    []string{"Banking"},
		Regulators: []string{"RBI"},
	}

	data := MarshalEntityTags(tags)
	decoded, err := UnmarshalEntityTags(data)
	require.NoError(t, err)
	assert.Equal(t, tags, decoded)
}

func TestImpactReportRoundTrip(t *testing.T) {
	report := &core.ImpactReport{
		ArticleId: 42,
		Stocks: []core.ImpactedStock{
			{Symbol: "HDFCBANK", Confidence: 1.0, Kind: "direct", Trigger: "HDFC Bank"},
			{Symbol: "ICICIBANK", Confidence: 0.7, Kind: "sector", Trigger: "Banking"},
		},
	}

	data := MarshalImpactReport(report)
	decoded, err := UnmarshalImpactReport(data)
	require.NoError(t, err)
	assert.Equal(t, report, decoded)
}

func TestUnmarshalMalformedRecord(t *testing.T) {
	_, err := UnmarshalArticle([]byte{0xff})
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = UnmarshalStory([]byte{})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

// A corrupt record can claim an absurd collection length; decoding must fail
// with ErrMalformedRecord instead of panicking on the allocation.
func TestUnmarshalOversizedLength(t *testing.T) {
	const huge = 1 << 60

	t.Run("entity tag strings", func(t *testing.T) {
		buf := make([]byte, core.IDMUS.Size(7)+varint.Int.Size(huge))
		n := core.IDMUS.Marshal(7, buf)
		varint.Int.Marshal(huge, buf[n:])

		_, err := UnmarshalEntityTags(buf)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("story members", func(t *testing.T) {
		buf := make([]byte, core.IDMUS.Size(1)+core.IDMUS.Size(7)+varint.Int.Size(huge))
		n := core.IDMUS.Marshal(1, buf)
		n += core.IDMUS.Marshal(7, buf[n:])
		varint.Int.Marshal(huge, buf[n:])

		_, err := UnmarshalStory(buf)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("impact stocks", func(t *testing.T) {
		buf := make([]byte, core.IDMUS.Size(7)+varint.Int.Size(huge))
		n := core.IDMUS.Marshal(7, buf)
		varint.Int.Marshal(huge, buf[n:])

		_, err := UnmarshalImpactReport(buf)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})
}

func TestVectorWireFormat(t *testing.T) {
	vector := []float32{0.5, -1.25, 0}

	data := MarshalVector(vector)
	require.Len(t, data, 12, "raw little-endian float32 array, no header")
	// 0.5 little-endian
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x3f}, data[:4])

	decoded, err := UnmarshalVector(data, 3)
	require.NoError(t, err)
	assert.Equal(t, vector, decoded)
}

func TestUnmarshalVectorMalformed(t *testing.T) {
	t.Run("length not a multiple of four", func(t *testing.T) {
		_, err := UnmarshalVector([]byte{1, 2, 3}, 1)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("dimension disagreement", func(t *testing.T) {
		_, err := UnmarshalVector(MarshalVector([]float32{1, 2}), 3)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})
}
