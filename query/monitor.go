package query

import "github.com/finsight/newsdesk/core"

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps during a query.
type Monitor interface {
	Start(query string)
	AfterInterpretation(intent *core.QueryIntent)
	AfterSemanticSearch(matches []*core.SimilarityMatch)
	CandidateKept(article *core.Article, score float32)
	CandidateDropped(article *core.Article, score float32)
	Finish(result *core.QueryResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                {}
func (n *noopMonitor) AfterInterpretation(_ *core.QueryIntent)       {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SimilarityMatch) {}
func (n *noopMonitor) CandidateKept(_ *core.Article, _ float32)      {}
func (n *noopMonitor) CandidateDropped(_ *core.Article, _ float32)   {}
func (n *noopMonitor) Finish(_ *core.QueryResult)                    {}
