package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/corpus"
	"github.com/letmevibethatforyou/pagex/finder"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	idx, err := corpus.NewIndex([]corpus.Entry{
		{ID: "p1", Text: "bcde"},
		{ID: "p2", Text: "abxx"},
		{ID: "p3", Text: "the quick brown fox"},
		{ID: "p4", Text: ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := New(finder.New(idx))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

func press(m Model, k tea.KeyType) Model {
	updated, _ := m.Update(tea.KeyMsg{Type: k})
	return updated.(Model)
}

func TestSearchLowConfidence(t *testing.T) {
	m := typeText(newTestModel(t), "abcd")
	m = press(m, tea.KeyEnter)

	if m.Page() != "" {
		t.Errorf("low confidence search should not open a page, opened %q", m.Page())
	}
	if len(m.Results()) != 2 || m.Results()[0].ID != "p1" {
		t.Fatalf("unexpected results %+v", m.Results())
	}
	if !strings.Contains(m.View(), "p2") {
		t.Error("result list is not rendered")
	}

	// Select the second result and open it.
	m = press(m, tea.KeyDown)
	m = press(m, tea.KeyEnter)
	if m.Page() != "p2" {
		t.Errorf("Expected p2 to be open, got %q", m.Page())
	}

	m = press(m, tea.KeyEsc)
	if m.Page() != "" {
		t.Error("esc should return to the result list")
	}
}

func TestSearchConfidentOpensPage(t *testing.T) {
	m := typeText(newTestModel(t), "the quick brown fox")
	m = press(m, tea.KeyEnter)

	if m.Page() != "p3" {
		t.Fatalf("Expected p3 to open, got %q", m.Page())
	}
	if !strings.Contains(m.View(), "quick brown fox") {
		t.Error("page text is not rendered")
	}
}

func TestNoMatch(t *testing.T) {
	m := typeText(newTestModel(t), "zzzzzzzz")
	m = press(m, tea.KeyEnter)
	if len(m.Results()) != 0 || !strings.Contains(m.Status(), "No matching page") {
		t.Errorf("unexpected state: results %+v, status %q", m.Results(), m.Status())
	}
}

func TestStepThroughPages(t *testing.T) {
	m := typeText(newTestModel(t), "the quick brown fox")
	m = press(m, tea.KeyEnter)

	m = press(m, tea.KeyRight)
	if m.Page() != "p4" {
		t.Fatalf("right should open p4, got %q", m.Page())
	}
	if !strings.Contains(m.View(), "no text on this page") {
		t.Error("empty page placeholder is not rendered")
	}

	m = press(m, tea.KeyRight)
	if m.Page() != "p4" || !strings.Contains(m.Status(), "No further pages") {
		t.Errorf("stepping past the end: page %q, status %q", m.Page(), m.Status())
	}

	m = press(m, tea.KeyCtrlP)
	m = press(m, tea.KeyCtrlP)
	m = press(m, tea.KeyLeft)
	if m.Page() != "p1" {
		t.Fatalf("Expected p1, got %q", m.Page())
	}
	m = press(m, tea.KeyLeft)
	if m.Page() != "p1" || !strings.Contains(m.Status(), "No further pages") {
		t.Errorf("stepping before the start: page %q, status %q", m.Page(), m.Status())
	}
}

type failingFinder struct{}

func (failingFinder) Rank(ctx context.Context, query string, opts ...pagex.RankOption) (*pagex.Results, error) {
	return nil, pagex.ErrCanceled
}

func (failingFinder) Navigate(ctx context.Context, id string, dir pagex.Direction) (string, error) {
	return "", pagex.ErrNoFurtherPages
}

func (failingFinder) Lookup(ctx context.Context, id string) (corpus.Entry, bool) {
	return corpus.Entry{}, false
}

func TestRankError(t *testing.T) {
	m := New(failingFinder{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = typeText(updated.(Model), "abc")
	m = press(m, tea.KeyEnter)
	if !strings.HasPrefix(m.Status(), "Error:") {
		t.Errorf("Expected an error status, got %q", m.Status())
	}
}

func TestQuit(t *testing.T) {
	_, cmd := newTestModel(t).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
}
