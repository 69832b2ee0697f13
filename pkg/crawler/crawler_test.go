package crawler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "pindl/pkg/errors"
	"pindl/pkg/logger"
	"pindl/pkg/models"
)

const baseURL = "https://pinterest.com"

// fakeBoard is one scripted page: its title and the raw items each screen
// extraction returns.
type fakeBoard struct {
	title   string
	screens [][]models.RawItem
	pos     int
}

type fakeSession struct {
	boards  map[string]*fakeBoard
	current *fakeBoard
	visited []string
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	board, ok := s.boards[url]
	if !ok {
		return errs.New(errs.ErrorTypeNetwork, "no such board %s", url)
	}
	board.pos = 0
	s.current = board
	s.visited = append(s.visited, url)
	return nil
}

func (s *fakeSession) Title(context.Context) (string, error) {
	if s.current.title == "" {
		return "", errs.New(errs.ErrorTypeExtraction, "board title not found")
	}
	return s.current.title, nil
}

func (s *fakeSession) ExtractViewportItems(context.Context) ([]models.RawItem, error) {
	if s.current.pos >= len(s.current.screens) {
		return s.current.screens[len(s.current.screens)-1], nil
	}
	return s.current.screens[s.current.pos], nil
}

func (s *fakeSession) Scroll(context.Context) error {
	s.current.pos++
	return nil
}

func (s *fakeSession) AtBottom(context.Context) (bool, error) {
	return s.current.pos >= len(s.current.screens), nil
}

// passthroughResolver finalizes nothing; records flow through untouched.
type passthroughResolver struct{}

func (passthroughResolver) ResolveAll(_ context.Context, pins []models.PinRecord) []models.PinRecord {
	return pins
}

func pinItems(ids ...string) []models.RawItem {
	items := make([]models.RawItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.RawItem{Href: fmt.Sprintf("/pin/%s/", id)})
	}
	return items
}

func newTestCrawler(sess *fakeSession) *Crawler {
	return New(sess, passthroughResolver{}, baseURL, logger.NewTestLogger())
}

func TestZeroLimitReturnsNamedEmptyFolder(t *testing.T) {
	sess := &fakeSession{boards: map[string]*fakeBoard{
		baseURL + "/u/board/": {title: "My Board", screens: [][]models.RawItem{pinItems("a", "b")}},
	}}
	c := newTestCrawler(sess)

	folder, err := c.CrawlFolder(context.Background(), baseURL+"/u/board/", Options{Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, "My Board", folder.Name)
	assert.Empty(t, folder.Pins)
	assert.Empty(t, folder.Subfolders)
}

func TestBottomOfContentBeatsLimit(t *testing.T) {
	sess := &fakeSession{boards: map[string]*fakeBoard{
		baseURL + "/u/board/": {title: "Short Board", screens: [][]models.RawItem{
			pinItems("a", "b"),
			pinItems("b", "c"),
		}},
	}}
	c := newTestCrawler(sess)

	folder, err := c.CrawlFolder(context.Background(), baseURL+"/u/board/", Options{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, folder.Pins, 3, "dedup across screens, loop ends at bottom")
}

func TestLimitStopsCollection(t *testing.T) {
	screens := make([][]models.RawItem, 10)
	for i := range screens {
		screens[i] = pinItems(fmt.Sprintf("p%da", i), fmt.Sprintf("p%db", i))
	}
	sess := &fakeSession{boards: map[string]*fakeBoard{
		baseURL + "/u/board/": {title: "Endless Board", screens: screens},
	}}
	c := newTestCrawler(sess)

	folder, err := c.CrawlFolder(context.Background(), baseURL+"/u/board/", Options{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, folder.Pins, 3)
}

func TestMissingTitleIsFatal(t *testing.T) {
	sess := &fakeSession{boards: map[string]*fakeBoard{
		baseURL + "/u/board/": {screens: [][]models.RawItem{pinItems("a")}},
	}}
	c := newTestCrawler(sess)

	_, err := c.CrawlFolder(context.Background(), baseURL+"/u/board/", Options{Limit: 5})
	require.Error(t, err)
}

// Pins collected in the parent shrink each subfolder's budget, minus the
// slack of folders still pending. The budget is recomputed per sibling, so
// siblings get successively smaller allowances and the global total may
// overshoot the limit. That slack is long-standing behavior; this test pins
// it so a change shows up loudly.
func TestSubfolderBudgets(t *testing.T) {
	parentScreen := append(pinItems("p1", "p2", "p3", "p4"),
		models.RawItem{Href: "/u/board-b/"},
		models.RawItem{Href: "/u/board-c/"},
	)

	wideScreen := pinItems("s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8")
	// board-b links further down to board-d; recursion must not follow it.
	screenB := append(append([]models.RawItem{}, wideScreen...), models.RawItem{Href: "/u/board-d/"})

	sess := &fakeSession{boards: map[string]*fakeBoard{
		baseURL + "/u/board-a/": {title: "A", screens: [][]models.RawItem{parentScreen}},
		baseURL + "/u/board-b/": {title: "B", screens: [][]models.RawItem{screenB}},
		baseURL + "/u/board-c/": {title: "C", screens: [][]models.RawItem{wideScreen}},
		baseURL + "/u/board-d/": {title: "D", screens: [][]models.RawItem{wideScreen}},
	}}
	c := newTestCrawler(sess)

	folder, err := c.CrawlFolder(context.Background(), baseURL+"/u/board-a/", Options{Limit: 10, Recursive: true})
	require.NoError(t, err)

	assert.Len(t, folder.Pins, 4)
	require.Len(t, folder.Subfolders, 2)

	// First sibling: 10 - (4 collected - 1 still pending) = 7.
	assert.Equal(t, "B", folder.Subfolders[0].Name)
	assert.Len(t, folder.Subfolders[0].Pins, 7)

	// Second sibling: 10 - (4 collected - 0 still pending) = 6.
	assert.Equal(t, "C", folder.Subfolders[1].Name)
	assert.Len(t, folder.Subfolders[1].Pins, 6)

	// Recursion is one level deep: board-d was discovered inside B but
	// never visited.
	assert.Empty(t, folder.Subfolders[0].Subfolders)
	assert.NotContains(t, sess.visited, baseURL+"/u/board-d/")
}
