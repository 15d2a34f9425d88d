// Copyright 2025 Finsight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/finsight/newsdesk/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return id, nil
}

// MarshalArticle serializes an Article to bytes.
func MarshalArticle(article *core.Article) []byte {
	buf := make([]byte, core.ArticleMUS.Size(*article))
	core.ArticleMUS.Marshal(*article, buf)
	return buf
}

// UnmarshalArticle deserializes an Article from bytes.
func UnmarshalArticle(data []byte) (*core.Article, error) {
	article, _, err := core.ArticleMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return &article, nil
}

// MarshalStory serializes a Story to bytes.
func MarshalStory(story *core.Story) []byte {
	buf := make([]byte, core.StoryMUS.Size(*story))
	core.StoryMUS.Marshal(*story, buf)
	return buf
}

// UnmarshalStory deserializes a Story from bytes.
func UnmarshalStory(data []byte) (*core.Story, error) {
	story, _, err := core.StoryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return &story, nil
}

// MarshalEntityTags serializes EntityTags to bytes.
func MarshalEntityTags(tags *core.EntityTags) []byte {
	buf := make([]byte, core.EntityTagsMUS.Size(*tags))
	core.EntityTagsMUS.Marshal(*tags, buf)
	return buf
}

// UnmarshalEntityTags deserializes EntityTags from bytes.
func UnmarshalEntityTags(data []byte) (*core.EntityTags, error) {
	tags, _, err := core.EntityTagsMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return &tags, nil
}

// MarshalImpactReport serializes an ImpactReport to bytes.
func MarshalImpactReport(report *core.ImpactReport) []byte {
	buf := make([]byte, core.ImpactReportMUS.Size(*report))
	core.ImpactReportMUS.Marshal(*report, buf)
	return buf
}

// UnmarshalImpactReport deserializes an ImpactReport from bytes.
func UnmarshalImpactReport(data []byte) (*core.ImpactReport, error) {
	report, _, err := core.ImpactReportMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return &report, nil
}

// MarshalVector serializes a vector as a little-endian IEEE-754 float32
// array with no header. The declared dimension is persisted separately.
func MarshalVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// UnmarshalVector deserializes a little-endian float32 array, validating the
// blob against the declared dimension.
func UnmarshalVector(data []byte, dim int) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: vector blob length %d is not a multiple of 4", ErrMalformedRecord, len(data))
	}
	if n := len(data) / 4; n != dim {
		return nil, fmt.Errorf("%w: vector blob holds %d values, namespace dimension is %d", ErrMalformedRecord, n, dim)
	}
	vector := make([]float32, dim)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vector, nil
}
