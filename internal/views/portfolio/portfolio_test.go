package portfolio

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/investerm/investerm/internal/client"
)

func testPortfolio(t *testing.T) Model {
	t.Helper()
	m := New(client.NewHTTPClient("http://127.0.0.1:1", "tok"))
	m.SetSize(100, 30)
	m, _ = m.Update(LoadedMsg{Sims: []client.Simulation{
		{ID: 10, Symbol: "BTC", Days: 30, StartCash: 1000, FinalCash: 1200},
		{ID: 11, Symbol: "ETH", Days: 14, StartCash: 500, FinalCash: 400},
	}})
	return m
}

func press(m Model, k string) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	m := testPortfolio(t)

	m, cmd := press(m, "d")
	if cmd != nil {
		t.Fatal("first d must only arm the deletion")
	}
	if m.confirming != 10 {
		t.Fatalf("confirming = %d, want 10", m.confirming)
	}
	if !strings.Contains(m.View(), "delete BTC?") {
		t.Error("view should show the confirmation prompt")
	}

	m, cmd = press(m, "y")
	if cmd == nil {
		t.Error("y should confirm the armed deletion")
	}
	if m.confirming != 0 {
		t.Error("confirmation state should reset after confirming")
	}
}

func TestSecondDeleteKeyConfirms(t *testing.T) {
	m := testPortfolio(t)
	m, _ = press(m, "d")
	m, cmd := press(m, "d")
	if cmd == nil {
		t.Error("second d on the same simulation should delete")
	}
	if m.confirming != 0 {
		t.Error("confirmation state should reset")
	}
}

func TestMovingCursorCancelsConfirmation(t *testing.T) {
	m := testPortfolio(t)
	m, _ = press(m, "d")
	m, _ = press(m, "j")
	if m.confirming != 0 {
		t.Error("moving the cursor should disarm the deletion")
	}

	m, cmd := press(m, "y")
	if cmd != nil {
		t.Error("y with nothing armed must not delete")
	}
}

func TestConfirmFollowsCursorNotStaleTarget(t *testing.T) {
	m := testPortfolio(t)
	m, _ = press(m, "d") // arms BTC
	m, _ = press(m, "j") // disarms, moves to ETH
	m, cmd := press(m, "d")
	if cmd != nil {
		t.Fatal("d after moving should arm again, not delete")
	}
	if m.confirming != 11 {
		t.Errorf("confirming = %d, want 11 (the simulation under the cursor)", m.confirming)
	}
}
