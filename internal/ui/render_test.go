package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/henri123lemoine/asmdw/internal/branch"
	"github.com/henri123lemoine/asmdw/internal/diffdoc"
	"github.com/henri123lemoine/asmdw/internal/linkermap"
	"github.com/henri123lemoine/asmdw/internal/status"
)

const markup = `<table class='diff'>
<thead><tr><th>TARGET</th><th>CURRENT</th></tr></thead>
<tbody>
<tr><td><span><span class='branch-indicator branch-a' data-branches-class="branch-a" data-branch-target="branch-a-target">~&gt;</span></span> b 8</td><td>nop</td></tr>
<tr><td><span><span class='branch-indicator branch-a' id="branch-a-target" data-branches-class="branch-a">~&gt;</span></span> <span class='diff-add'>jr ra</span></td><td>jr ra</td></tr>
</tbody>
</table>`

func TestRenderTableText(t *testing.T) {
	doc, err := diffdoc.Parse(markup)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	l := diffdoc.NewLayout(doc, 80)

	out := RenderTable(TableParams{
		Doc:       doc,
		Layout:    l,
		Highlight: func(int) branch.Highlight { return branch.Highlight{Stay: true} },
		Focus:     0,
	})
	lines := strings.Split(out, "\n")
	if len(lines) != l.Height() {
		t.Fatalf("Expected %d lines, got %d", l.Height(), len(lines))
	}
	if !strings.Contains(lines[0], "TARGET") || !strings.Contains(lines[0], "CURRENT") {
		t.Errorf("Expected header line, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "~> b 8") {
		t.Errorf("Expected origin row, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "~> jr ra") {
		t.Errorf("Expected target row, got %q", lines[2])
	}

	// The second column starts at its layout offset.
	if idx := strings.Index(lines[1], "nop"); lipgloss.Width(lines[1][:idx]) != l.ColX[1] {
		t.Errorf("Expected nop at column %d, got %d", l.ColX[1], lipgloss.Width(lines[1][:idx]))
	}
}

func TestPieceStyleStayAndTempBothShow(t *testing.T) {
	doc, err := diffdoc.Parse(markup)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	piece := diffdoc.Piece{Text: "~>", Region: 0}
	styleFor := func(hl branch.Highlight) lipgloss.Style {
		return pieceStyle(TableParams{
			Doc:       doc,
			Highlight: func(int) branch.Highlight { return hl },
			Focus:     diffdoc.NoRegion,
		}, piece)
	}

	stay := styleFor(branch.Highlight{Stay: true})
	temp := styleFor(branch.Highlight{Temp: true})
	both := styleFor(branch.Highlight{Stay: true, Temp: true})

	if stay.GetBackground() == temp.GetBackground() {
		t.Fatal("Expected stay and temp to differ")
	}
	if both.GetBackground() == stay.GetBackground() || both.GetBackground() == temp.GetBackground() {
		t.Errorf("Expected a distinct background when selected and hovered, got %v", both.GetBackground())
	}
	if !both.GetBold() {
		t.Error("Expected the selection emphasis to remain while hovered")
	}
}

func TestRenderTableNilLayout(t *testing.T) {
	if got := RenderTable(TableParams{}); got != "" {
		t.Errorf("Expected empty output, got %q", got)
	}
}

func TestClassStyleInnermostWins(t *testing.T) {
	if ClassStyle([]string{"rotation-3", "diff-add"}).GetForeground() != classStyles["diff-add"].GetForeground() {
		t.Error("Expected innermost class to decide")
	}
	rot := ClassStyle([]string{"diff-add", "rotation-10", "branch-indicator"})
	if rot.GetForeground() != rotationColors[1] {
		t.Errorf("Expected rotation-10 to wrap to palette index 1, got %v", rot.GetForeground())
	}
	if ClassStyle(nil).GetForeground() != NormalStyle.GetForeground() {
		t.Error("Expected normal style without classes")
	}
}

func TestOverlayToasts(t *testing.T) {
	lines := []string{"a", "b", "c"}
	out := overlayToasts(lines, []status.Item{{Text: "Building..."}}, 40)

	if out[0] != "a" || out[1] != "b" {
		t.Errorf("Expected upper lines untouched, got %q", out[:2])
	}
	if !strings.HasSuffix(strings.TrimRight(out[2], " "), "Building...") {
		t.Errorf("Expected toast on last line, got %q", out[2])
	}
	if lipgloss.Width(out[2]) != 40 {
		t.Errorf("Expected toast right-aligned to width 40, got %d", lipgloss.Width(out[2]))
	}
	if lines[2] != "c" {
		t.Error("Expected input lines not modified")
	}
}

func TestOverlayToastsRetryAndSlide(t *testing.T) {
	out := overlayToasts([]string{"", ""}, []status.Item{
		{Text: "Failed", Retry: true},
		{Text: "x"},
	}, 60)
	if !strings.Contains(out[0], "(r: retry now)") {
		t.Errorf("Expected retry affordance, got %q", out[0])
	}

	full := overlayToasts([]string{""}, []status.Item{{Text: "sliding away"}}, 60)
	half := overlayToasts([]string{""}, []status.Item{{Text: "sliding away", Progress: 0.5}}, 60)
	if lipgloss.Width(strings.TrimSpace(half[0])) >= lipgloss.Width(strings.TrimSpace(full[0])) {
		t.Errorf("Expected sliding toast to be clipped: %q vs %q", half[0], full[0])
	}
}

func TestOverlayToastsKeepTableCellsOnTheLeft(t *testing.T) {
	out := overlayToasts([]string{"~> beqz a0, 8"}, []status.Item{{Text: "Building..."}}, 40)

	if !strings.HasPrefix(out[0], "~> beqz a0, 8") {
		t.Errorf("Expected table text left of the toast, got %q", out[0])
	}
	cols := ToastColumns([]status.Item{{Text: "Building..."}}, 40)
	if idx := strings.Index(out[0], "Building"); lipgloss.Width(out[0][:idx]) != cols[0]+1 {
		t.Errorf("Expected toast text one cell after column %d, got %q", cols[0], out[0])
	}

	long := overlayToasts([]string{strings.Repeat("x", 40)}, []status.Item{{Text: "y"}}, 40)
	if lipgloss.Width(long[0]) != 40 {
		t.Errorf("Expected covered cells cut, got width %d", lipgloss.Width(long[0]))
	}
}

func TestOverlayToastsTruncationKeepsRetryHint(t *testing.T) {
	msg := "Failed to communicate with server, trying again in 10 seconds"
	out := overlayToasts([]string{""}, []status.Item{{Text: msg, Retry: true}}, 50)

	if lipgloss.Width(out[0]) > 50 {
		t.Errorf("Expected toast within 50 cells, got %d", lipgloss.Width(out[0]))
	}
	if !strings.Contains(out[0], "(r: retry now)") {
		t.Errorf("Expected retry affordance after truncation, got %q", out[0])
	}
	if !strings.Contains(out[0], "…") {
		t.Errorf("Expected truncated message, got %q", out[0])
	}
}

func TestOverlayMoreToastsThanLines(t *testing.T) {
	out := overlayToasts([]string{""}, []status.Item{{Text: "old"}, {Text: "new"}}, 30)
	if len(out) != 1 || !strings.Contains(out[0], "new") {
		t.Errorf("Expected newest toast kept, got %q", out)
	}
}

func TestRenderView(t *testing.T) {
	out := Render(RenderParams{
		State:     StateView,
		Width:     100,
		Height:    20,
		ServerURL: "http://localhost:8000/",
		Poll:      PollStatus{State: "backoff", Backoff: 10 * time.Second},
		Table:     "line0\nline1",
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 20 {
		t.Errorf("Expected full-height view, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "http://localhost:8000/") || !strings.Contains(lines[0], "retry in 10s") {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if lines[2] != "line0" {
		t.Errorf("Expected table under the header, got %q", lines[2])
	}
}

func TestRenderEmptyAndAlert(t *testing.T) {
	out := Render(RenderParams{State: StateView, Width: 80, Height: 10, ServerURL: "http://x/", Empty: true})
	if !strings.Contains(out, "Waiting for the first diff") {
		t.Error("Expected waiting message")
	}

	out = Render(RenderParams{State: StateAlert, Width: 80, Height: 20, Alert: `unknown response tag "bogus"`})
	if !strings.Contains(out, "Protocol error") || !strings.Contains(out, "bogus") {
		t.Errorf("Expected alert, got %q", out)
	}
}

func TestRenderPicker(t *testing.T) {
	out := Render(RenderParams{
		State:  StatePicker,
		Width:  80,
		Height: 20,
		Picker: PickerParams{
			Loaded:  true,
			Matches: []linkermap.Symbol{{Name: "osInit", RAM: 0x80001000, Object: "os.o"}, {Name: "main", Object: "main.o"}},
			Cursor:  1,
			Visible: 10,
		},
	})
	if !strings.Contains(out, "80001000") || !strings.Contains(out, SymbolCursor+" main") {
		t.Errorf("Unexpected picker output:\n%s", out)
	}
}

func TestTableHeight(t *testing.T) {
	if TableHeight(24) != 24-ChromeHeight {
		t.Errorf("TableHeight(24) = %d", TableHeight(24))
	}
	if TableHeight(2) != 1 {
		t.Errorf("Expected at least one table line, got %d", TableHeight(2))
	}
}
