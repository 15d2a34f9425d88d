package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/storage"
)

func TestReplaceStoriesAndLookup(t *testing.T) {
	repos, err := NewMemoryRepos()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	stories := []*core.Story{
		{Id: 2, RepresentativeId: 30, MemberIds: []core.ID{30, 31}},
		{Id: 1, RepresentativeId: 10, MemberIds: []core.ID{10, 11, 12}},
	}
	if err := repos.Stories.ReplaceStories(ctx, stories...); err != nil {
		t.Fatalf("Failed to replace stories: %v", err)
	}

	all, err := repos.Stories.GetAllStories(ctx)
	if err != nil {
		t.Fatalf("Failed to get all stories: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 stories, got %d", len(all))
	}
	if all[0].Id != 1 || all[1].Id != 2 {
		t.Fatalf("Expected stories ordered by ID, got [%d %d]", all[0].Id, all[1].Id)
	}

	story, err := repos.Stories.GetStoryForArticle(ctx, 11)
	if err != nil {
		t.Fatalf("Failed to look up story for article: %v", err)
	}
	if story.Id != 1 {
		t.Fatalf("Expected article 11 in story 1, got %d", story.Id)
	}

	if _, err := repos.Stories.GetStoryForArticle(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unclustered article, got %v", err)
	}
}

func TestReplaceStoriesClearsOldSet(t *testing.T) {
	repos, err := NewMemoryRepos()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	first := []*core.Story{
		{Id: 1, RepresentativeId: 10, MemberIds: []core.ID{10, 11}},
		{Id: 2, RepresentativeId: 20, MemberIds: []core.ID{20}},
	}
	if err := repos.Stories.ReplaceStories(ctx, first...); err != nil {
		t.Fatalf("Failed first replacement: %v", err)
	}

	second := []*core.Story{
		{Id: 1, RepresentativeId: 10, MemberIds: []core.ID{10, 20}},
	}
	if err := repos.Stories.ReplaceStories(ctx, second...); err != nil {
		t.Fatalf("Failed second replacement: %v", err)
	}

	all, err := repos.Stories.GetAllStories(ctx)
	if err != nil {
		t.Fatalf("Failed to get all stories: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected old story set to be cleared, got %d stories", len(all))
	}

	// Membership from the first run must not survive.
	if _, err := repos.Stories.GetStoryForArticle(ctx, 11); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected stale membership to be cleared, got %v", err)
	}

	story, err := repos.Stories.GetStoryForArticle(ctx, 20)
	if err != nil {
		t.Fatalf("Failed to look up rewired membership: %v", err)
	}
	if story.Id != 1 {
		t.Fatalf("Expected article 20 in story 1, got %d", story.Id)
	}
}

func TestReplaceStoriesEmptySet(t *testing.T) {
	repos, err := NewMemoryRepos()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	if err := repos.Stories.ReplaceStories(ctx, &core.Story{Id: 1, RepresentativeId: 5, MemberIds: []core.ID{5}}); err != nil {
		t.Fatalf("Failed to seed stories: %v", err)
	}
	if err := repos.Stories.ReplaceStories(ctx); err != nil {
		t.Fatalf("Failed to replace with empty set: %v", err)
	}

	all, err := repos.Stories.GetAllStories(ctx)
	if err != nil {
		t.Fatalf("Failed to get all stories: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("Expected no stories, got %d", len(all))
	}
}

func TestEntityTagsRoundTrip(t *testing.T) {
	repos, err := NewMemoryRepos()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	tags := &core.EntityTags{
		ArticleId:  7,
		Companies:  []string{"HDFC Bank"},
		Sectors:    []string{"Banking"},
		Regulators: []string{"RBI"},
	}
	if err := repos.Entities.PutEntityTags(ctx, tags); err != nil {
		t.Fatalf("Failed to put entity tags: %v", err)
	}

	got, err := repos.Entities.GetEntityTags(ctx, 7)
	if err != nil {
		t.Fatalf("Failed to get entity tags: %v", err)
	}
	if len(got.Companies) != 1 || got.Companies[0] != "HDFC Bank" {
		t.Fatalf("Expected company tag to round-trip, got %v", got.Companies)
	}

	if _, err := repos.Entities.GetEntityTags(ctx, 8); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for untagged article, got %v", err)
	}
}

func TestImpactReportRoundTrip(t *testing.T) {
	repos, err := NewMemoryRepos()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	report := &core.ImpactReport{
		ArticleId: 7,
		Stocks: []core.ImpactedStock{
			{Symbol: "HDFCBANK", Confidence: 1.0, Kind: "company", Trigger: "HDFC Bank"},
			{Symbol: "ICICIBANK", Confidence: 0.7, Kind: "sector", Trigger: "Banking"},
		},
	}
	if err := repos.Impacts.PutImpactReport(ctx, report); err != nil {
		t.Fatalf("Failed to put impact report: %v", err)
	}

	got, err := repos.Impacts.GetImpactReport(ctx, 7)
	if err != nil {
		t.Fatalf("Failed to get impact report: %v", err)
	}
	if len(got.Stocks) != 2 {
		t.Fatalf("Expected 2 impacted stocks, got %d", len(got.Stocks))
	}
	if got.Stocks[0].Symbol != "HDFCBANK" || got.Stocks[0].Confidence != 1.0 {
		t.Fatalf("Expected direct impact to round-trip, got %+v", got.Stocks[0])
	}

	if _, err := repos.Impacts.GetImpactReport(ctx, 8); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unanalyzed article, got %v", err)
	}
}
