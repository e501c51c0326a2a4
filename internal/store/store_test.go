package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/promptshelf/internal/config"
	"github.com/keyxmakerx/promptshelf/internal/database"
)

// --- Test Helpers ---

// fakeClock is a settable clock shared by the store under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestStore opens an initialized store on a fresh database file.
func newTestStore(t *testing.T) (*SQLStore, *fakeClock) {
	t.Helper()

	db, err := database.NewSQLite(config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "prompts.db"),
		MaxOpenConns: 8,
		BusyTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := newFakeClock()
	s := New(db, WithClock(clock.Now))
	require.NoError(t, s.Initialize(context.Background()))
	return s, clock
}

func mustCreatePrompt(t *testing.T, s *SQLStore, title string) int64 {
	t.Helper()
	id, err := s.CreatePrompt(context.Background(), PromptInput{
		Title:   title,
		Summary: title + " summary",
		Purpose: title + " purpose",
		Content: title + " content",
	})
	require.NoError(t, err)
	return id
}

func mustUpsertTag(t *testing.T, s *SQLStore, name, color string) int64 {
	t.Helper()
	id, err := s.UpsertTag(context.Background(), name, color)
	require.NoError(t, err)
	return id
}

func promptIDs(prompts []Prompt) []int64 {
	ids := make([]int64, len(prompts))
	for i, p := range prompts {
		ids[i] = p.ID
	}
	return ids
}

func tagNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

func int64Ptr(v int64) *int64 { return &v }

// --- Initialize ---

func TestInitialize_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.Initialize(context.Background()))
}

func TestInitialize_CanceledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Initialize(ctx), context.Canceled)
}

// --- Prompts ---

func TestCreatePrompt_RoundTrip(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreatePrompt(ctx, PromptInput{Title: "T", Summary: "S", Purpose: "P", Content: "C"})
	require.NoError(t, err)

	p, found, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, id, p.ID)
	assert.Equal(t, "T", p.Title)
	assert.Equal(t, "S", p.Summary)
	assert.Equal(t, "P", p.Purpose)
	assert.Equal(t, "C", p.Content)
	assert.True(t, p.CreatedAt.Equal(clock.Now()))
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestCreatePrompt_AcceptsEmptyFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreatePrompt(ctx, PromptInput{})
	require.NoError(t, err)

	p, found, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, p.Title)
}

func TestCreatePrompt_PersistsISOTimestamps(t *testing.T) {
	s, clock := newTestStore(t)
	clock.now = time.Date(2024, 5, 1, 9, 30, 15, 987654321, time.FixedZone("CEST", 2*3600))
	id := mustCreatePrompt(t, s, "stamped")

	var createdAt, updatedAt string
	require.NoError(t, s.db.QueryRow(`SELECT created_at, updated_at FROM prompts WHERE id = ?`, id).
		Scan(&createdAt, &updatedAt))

	assert.Equal(t, "2024-05-01T07:30:15Z", createdAt)
	assert.Equal(t, createdAt, updatedAt)
}

func TestGetPrompt_MissingIsNotAnError(t *testing.T) {
	s, _ := newTestStore(t)

	p, found, err := s.GetPrompt(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, p)
}

func TestUpdatePrompt_RefreshesUpdatedAt(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	id := mustCreatePrompt(t, s, "original")
	before, _, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)

	clock.Advance(90 * time.Second)
	require.NoError(t, s.UpdatePrompt(ctx, id, PromptInput{Title: "T2", Summary: "S2", Purpose: "P2", Content: "C2"}))

	after, found, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "T2", after.Title)
	assert.Equal(t, "S2", after.Summary)
	assert.Equal(t, "P2", after.Purpose)
	assert.Equal(t, "C2", after.Content)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdatePrompt_SameSecondKeepsTimestamp(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	id := mustCreatePrompt(t, s, "quick")

	clock.Advance(400 * time.Millisecond)
	require.NoError(t, s.UpdatePrompt(ctx, id, PromptInput{Title: "quick edit"}))

	p, _, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestUpdatePrompt_ClockStepBackStillAfterCreation(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	id := mustCreatePrompt(t, s, "skewed")

	clock.Advance(-time.Hour)
	require.NoError(t, s.UpdatePrompt(ctx, id, PromptInput{Title: "skewed edit"}))
	require.NoError(t, s.TouchPrompt(ctx, id))

	p, _, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.UpdatedAt.Before(p.CreatedAt))
}

func TestUpdatePrompt_MissingIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdatePrompt(ctx, 42, PromptInput{Title: "ghost"}))

	prompts, err := s.ListPrompts(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, prompts)
}

func TestTouchPrompt_OnlyChangesUpdatedAt(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	id := mustCreatePrompt(t, s, "touched")
	tagID := mustUpsertTag(t, s, "keep", "#00ff00")
	require.NoError(t, s.SetPromptTags(ctx, id, []int64{tagID}))
	before, _, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.NoError(t, s.TouchPrompt(ctx, id))

	after, _, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Summary, after.Summary)
	assert.Equal(t, before.Purpose, after.Purpose)
	assert.Equal(t, before.Content, after.Content)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt.Add(time.Minute)))

	tags, err := s.GetTagsForPrompt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, tagNames(tags))
}

func TestTouchPrompt_MissingIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.TouchPrompt(context.Background(), 7))
}

func TestDeletePrompt_KeepsTags(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreatePrompt(t, s, "doomed")
	tagID := mustUpsertTag(t, s, "survivor", "#123456")
	require.NoError(t, s.SetPromptTags(ctx, id, []int64{tagID}))

	require.NoError(t, s.DeletePrompt(ctx, id))

	_, found, err := s.GetPrompt(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)

	var joinRows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM prompt_tags WHERE prompt_id = ?`, id).Scan(&joinRows))
	assert.Zero(t, joinRows)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"survivor"}, tagNames(tags))
}

func TestDeletePrompt_MissingIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.DeletePrompt(context.Background(), 3))
}

// --- Listing ---

func TestListPrompts_SortOrders(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	first := mustCreatePrompt(t, s, "first")
	clock.Advance(time.Minute)
	second := mustCreatePrompt(t, s, "second")
	clock.Advance(time.Minute)
	require.NoError(t, s.TouchPrompt(ctx, first))

	byUpdated, err := s.ListPrompts(ctx, ListOptions{Sort: SortUpdatedDesc})
	require.NoError(t, err)
	assert.Equal(t, []int64{first, second}, promptIDs(byUpdated))

	byCreated, err := s.ListPrompts(ctx, ListOptions{Sort: SortCreatedDesc})
	require.NoError(t, err)
	assert.Equal(t, []int64{second, first}, promptIDs(byCreated))

	fallback, err := s.ListPrompts(ctx, ListOptions{Sort: ParseSortOrder("title_asc")})
	require.NoError(t, err)
	assert.Equal(t, promptIDs(byUpdated), promptIDs(fallback))
}

func TestListPrompts_SameSecondBreaksTiesByID(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustCreatePrompt(t, s, "a")
	b := mustCreatePrompt(t, s, "b")

	prompts, err := s.ListPrompts(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{b, a}, promptIDs(prompts))
}

func TestListPrompts_TagFilter(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	tagA := mustUpsertTag(t, s, "A", "#aaaaaa")
	tagB := mustUpsertTag(t, s, "B", "#bbbbbb")
	p1 := mustCreatePrompt(t, s, "P1")
	clock.Advance(time.Second)
	p2 := mustCreatePrompt(t, s, "P2")
	clock.Advance(time.Second)
	mustCreatePrompt(t, s, "P3")
	require.NoError(t, s.SetPromptTags(ctx, p1, []int64{tagA}))
	require.NoError(t, s.SetPromptTags(ctx, p2, []int64{tagA, tagB}))

	for _, sort := range []SortOrder{SortUpdatedDesc, SortCreatedDesc} {
		prompts, err := s.ListPrompts(ctx, ListOptions{Sort: sort, TagID: int64Ptr(tagA)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{p1, p2}, promptIDs(prompts), "sort %s", sort)

		withTags, err := s.ListPromptsWithTags(ctx, ListOptions{Sort: sort, TagID: int64Ptr(tagA)})
		require.NoError(t, err)
		require.Len(t, withTags, 2)
	}

	onlyB, err := s.ListPrompts(ctx, ListOptions{TagID: int64Ptr(tagB)})
	require.NoError(t, err)
	assert.Equal(t, []int64{p2}, promptIDs(onlyB))

	unknown, err := s.ListPrompts(ctx, ListOptions{TagID: int64Ptr(999)})
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestListPromptsWithTags_AttachesSortedTags(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	banana := mustUpsertTag(t, s, "Banana", "#ffff00")
	apple := mustUpsertTag(t, s, "apple", "#ff0000")
	cherry := mustUpsertTag(t, s, "cherry", "#990000")

	tagged := mustCreatePrompt(t, s, "tagged")
	clock.Advance(time.Second)
	bare := mustCreatePrompt(t, s, "bare")
	require.NoError(t, s.SetPromptTags(ctx, tagged, []int64{cherry, banana, apple}))

	list, err := s.ListPromptsWithTags(ctx, ListOptions{Sort: SortCreatedDesc})
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, bare, list[0].ID)
	assert.NotNil(t, list[0].Tags)
	assert.Empty(t, list[0].Tags)

	assert.Equal(t, tagged, list[1].ID)
	assert.Equal(t, "tagged", list[1].Title)
	assert.Equal(t, []string{"apple", "Banana", "cherry"}, tagNames(list[1].Tags))

	// The single-prompt lookup uses plain ordinal order instead.
	ordinal, err := s.GetTagsForPrompt(ctx, tagged)
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana", "apple", "cherry"}, tagNames(ordinal))
}

// --- Tags ---

func TestUpsertTag_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertTag(ctx, "x", "#111111")
	require.NoError(t, err)
	second, err := s.UpsertTag(ctx, "x", "#222222")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "#111111", tags[0].Color)
}

func TestUpsertTag_NamesAreCaseSensitive(t *testing.T) {
	s, _ := newTestStore(t)

	lower := mustUpsertTag(t, s, "work", "#000000")
	upper := mustUpsertTag(t, s, "Work", "#000000")
	assert.NotEqual(t, lower, upper)
}

func TestUpsertTag_ConcurrentCallersShareOneRow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const callers = 8
	ids := make([]int64, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			id, err := s.UpsertTag(ctx, "contested", "#abcdef")
			ids[i] = id
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var rows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM tags WHERE name = 'contested'`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestUpsertTag_RecoversFromUniqueViolation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	winner := mustUpsertTag(t, s, "raced", "#010101")

	// Simulate losing the race: the lookup misses, the insert collides.
	_, err := s.db.ExecContext(ctx, `INSERT INTO tags (name, color) VALUES (?, ?)`, "raced", "#020202")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	id, found, err := s.findTagIDByName(ctx, "raced")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, winner, id)
}

func TestListTags_OrdinalOrder(t *testing.T) {
	s, _ := newTestStore(t)
	mustUpsertTag(t, s, "beta", "#000000")
	mustUpsertTag(t, s, "Zulu", "#000000")
	mustUpsertTag(t, s, "alpha", "#000000")

	tags, err := s.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Zulu", "alpha", "beta"}, tagNames(tags))
}

func TestUpdateTagColor(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustUpsertTag(t, s, "paint", "#000000")

	require.NoError(t, s.UpdateTagColor(ctx, id, "#ffffff"))
	require.NoError(t, s.UpdateTagColor(ctx, id+100, "#ffffff"))

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, Tag{ID: id, Name: "paint", Color: "#ffffff"}, tags[0])
}

func TestDeleteTag_CascadesWithoutDeletingPrompts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	doomed := mustUpsertTag(t, s, "doomed", "#000000")
	kept := mustUpsertTag(t, s, "kept", "#000000")
	p1 := mustCreatePrompt(t, s, "one")
	p2 := mustCreatePrompt(t, s, "two")
	require.NoError(t, s.SetPromptTags(ctx, p1, []int64{doomed, kept}))
	require.NoError(t, s.SetPromptTags(ctx, p2, []int64{doomed}))

	require.NoError(t, s.DeleteTag(ctx, doomed))
	require.NoError(t, s.DeleteTag(ctx, doomed))

	tags1, err := s.GetTagsForPrompt(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, tagNames(tags1))

	tags2, err := s.GetTagsForPrompt(ctx, p2)
	require.NoError(t, err)
	assert.Empty(t, tags2)

	prompts, err := s.ListPrompts(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, prompts, 2)
}

// --- SetPromptTags ---

func TestSetPromptTags_ReplacesAndDedupes(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreatePrompt(t, s, "labels")
	t1 := mustUpsertTag(t, s, "t1", "#000001")
	t2 := mustUpsertTag(t, s, "t2", "#000002")
	t3 := mustUpsertTag(t, s, "t3", "#000003")

	require.NoError(t, s.SetPromptTags(ctx, id, []int64{t3}))
	require.NoError(t, s.SetPromptTags(ctx, id, []int64{t2, t1, t1}))

	tags, err := s.GetTagsForPrompt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []Tag{
		{ID: t1, Name: "t1", Color: "#000001"},
		{ID: t2, Name: "t2", Color: "#000002"},
	}, tags)
}

func TestSetPromptTags_EmptyClears(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreatePrompt(t, s, "cleared")
	tagID := mustUpsertTag(t, s, "gone", "#000000")
	require.NoError(t, s.SetPromptTags(ctx, id, []int64{tagID}))

	require.NoError(t, s.SetPromptTags(ctx, id, nil))

	tags, err := s.GetTagsForPrompt(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestSetPromptTags_SkipsUnknownTags(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := mustCreatePrompt(t, s, "partial")
	known := mustUpsertTag(t, s, "real", "#000000")

	require.NoError(t, s.SetPromptTags(ctx, id, []int64{known, 404}))

	tags, err := s.GetTagsForPrompt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, tagNames(tags))
}

func TestSetPromptTags_MissingPromptIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	tagID := mustUpsertTag(t, s, "orphan", "#000000")

	require.NoError(t, s.SetPromptTags(ctx, 77, []int64{tagID}))

	var joinRows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM prompt_tags`).Scan(&joinRows))
	assert.Zero(t, joinRows)
}

func TestSetPromptTags_CanceledContextLeavesOldSet(t *testing.T) {
	s, _ := newTestStore(t)
	id := mustCreatePrompt(t, s, "steady")
	old := mustUpsertTag(t, s, "old", "#000000")
	replacement := mustUpsertTag(t, s, "new", "#000000")
	require.NoError(t, s.SetPromptTags(context.Background(), id, []int64{old}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.SetPromptTags(ctx, id, []int64{replacement}))

	tags, err := s.GetTagsForPrompt(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, tagNames(tags))
}

// --- End to end ---

func TestWorkTagScenario(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tagID, err := s.UpsertTag(ctx, "work", "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tagID)

	promptID, err := s.CreatePrompt(ctx, PromptInput{Title: "T", Summary: "S", Purpose: "P", Content: "C"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), promptID)

	require.NoError(t, s.SetPromptTags(ctx, 1, []int64{1}))

	p, found, err := s.GetPrompt(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, PromptInput{Title: "T", Summary: "S", Purpose: "P", Content: "C"},
		PromptInput{Title: p.Title, Summary: p.Summary, Purpose: p.Purpose, Content: p.Content})

	tags, err := s.GetTagsForPrompt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Tag{{ID: 1, Name: "work", Color: "#ff0000"}}, tags)

	require.NoError(t, s.DeleteTag(ctx, 1))

	tags, err = s.GetTagsForPrompt(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, found, err = s.GetPrompt(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
}

// --- Helpers ---

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortCreatedDesc, ParseSortOrder("created_desc"))
	assert.Equal(t, SortUpdatedDesc, ParseSortOrder("updated_desc"))
	assert.Equal(t, SortUpdatedDesc, ParseSortOrder(""))
	assert.Equal(t, SortUpdatedDesc, ParseSortOrder("CREATED_DESC"))
}

func TestParseTimestamp_AcceptsOffsetForm(t *testing.T) {
	ts, err := parseTimestamp("2024-01-02T03:04:05+00:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T03:04:05Z", formatTimestamp(ts))

	_, err = parseTimestamp("yesterday")
	assert.Error(t, err)
}
