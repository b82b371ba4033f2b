package diffdoc

import (
	"strings"
	"testing"
)

// twoWay mirrors the server's HtmlFormatter output for a plain diff: two
// columns, one branch from row 0 to row 2 and another from row 1 to row 2
// in the current column.
const twoWay = `<table class='diff'>
  <tbody>
    <tr><td><span class=''><span class='rotation-0 branch-indicator branch-base-2' data-rotation="base;2" data-branches-class="branch-base-2" data-branch-target="branch-base-2-target">~&gt;</span></span> beqz a0, 8</td><td><span><span class='rotation-0 branch-indicator branch-my-2' data-branches-class="branch-my-2" data-branch-target="branch-my-2-target">~&gt;</span></span> beqz a0, 8</td></tr>
    <tr><td>  nop</td><td><span><span class='branch-indicator branch-my-2' data-branches-class="branch-my-2" data-branch-target="branch-my-2-target">~&gt;</span></span> b 8</td></tr>
    <tr><td><span><span class='branch-indicator branch-base-2' id="branch-base-2-target" data-branches-class="branch-base-2">~&gt;</span></span> jr ra</td><td><span><span class='branch-indicator branch-my-2' id="branch-my-2-target" data-branches-class="branch-my-2">~&gt;</span></span> <span class='diff-change'>jr ra</span></td></tr>
  </tbody>
</table>
`

const threeWay = `<table class='diff'>
  <thead>
    <tr><th>TARGET</th><th>  CURRENT</th><th>  PREVIOUS</th></tr>
  </thead>
  <tbody>
    <tr><td>a</td><td>b</td><td><span><span class='branch-indicator branch-prev-1' data-branches-class="branch-prev-1" data-branch-target="branch-prev-1-target">~&gt;</span></span> c</td></tr>
  </tbody>
</table>
`

func TestParseTwoWay(t *testing.T) {
	doc, err := Parse(twoWay)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(doc.Header) != 0 {
		t.Errorf("Expected no header rows, got %d", len(doc.Header))
	}
	if len(doc.Body) != 3 {
		t.Fatalf("Expected 3 body rows, got %d", len(doc.Body))
	}
	if doc.Columns() != 2 {
		t.Errorf("Expected 2 columns, got %d", doc.Columns())
	}
	if len(doc.Regions) != 5 {
		t.Fatalf("Expected 5 regions, got %d", len(doc.Regions))
	}

	want := []struct {
		refID    string
		role     Role
		row, col int
	}{
		{"branch-base-2", RoleOrigin, 0, 0},
		{"branch-my-2", RoleOrigin, 0, 1},
		{"branch-my-2", RoleOrigin, 1, 1},
		{"branch-base-2", RoleTarget, 2, 0},
		{"branch-my-2", RoleTarget, 2, 1},
	}
	for i, w := range want {
		r := doc.Regions[i]
		if r.ID != i {
			t.Errorf("region %d: ID = %d", i, r.ID)
		}
		if r.RefID != w.refID || r.Role != w.role || r.Row != w.row || r.Col != w.col {
			t.Errorf("region %d = {%s %s %d %d}, want {%s %s %d %d}",
				i, r.RefID, r.Role, r.Row, r.Col, w.refID, w.role, w.row, w.col)
		}
		if r.Inert {
			t.Errorf("region %d should not be inert", i)
		}
		if r.Text != "~>" {
			t.Errorf("region %d text = %q, want %q", i, r.Text, "~>")
		}
	}

	if doc.Regions[0].TargetElemID != "branch-base-2-target" {
		t.Errorf("origin target id = %q", doc.Regions[0].TargetElemID)
	}
	if doc.Regions[3].ElemID != "branch-base-2-target" {
		t.Errorf("target elem id = %q", doc.Regions[3].ElemID)
	}

	if got := doc.Body[2].Cells[1].Text(); got != "~> jr ra" {
		t.Errorf("cell text = %q", got)
	}

	last := doc.Body[2].Cells[1].Segments
	if !last[len(last)-1].HasClass("diff-change") {
		t.Errorf("expected diff-change class on last segment, got %v", last[len(last)-1].Classes)
	}
}

func TestParseThreeWayMarksPreviousColumnInert(t *testing.T) {
	doc, err := Parse(threeWay)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(doc.Header) != 1 {
		t.Fatalf("Expected 1 header row, got %d", len(doc.Header))
	}
	if !doc.Header[0].Cells[0].Header {
		t.Error("Expected header cells to be flagged")
	}
	if len(doc.Regions) != 1 {
		t.Fatalf("Expected 1 region, got %d", len(doc.Regions))
	}
	r := doc.Regions[0]
	if !r.Inert {
		t.Error("Expected third column region to be inert")
	}
	if r.Row != 1 {
		t.Errorf("Expected region row 1 (after header), got %d", r.Row)
	}
}

func TestParseWithoutTable(t *testing.T) {
	doc, err := Parse("<p>nothing here</p>")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !doc.Empty() {
		t.Error("Expected empty document")
	}
}

func TestSanitizeKeepsTableMetadata(t *testing.T) {
	out := Sanitize(`<table><tr><td><script>alert(1)</script><span onclick="x()" class="a" id="t" data-branches-class="b">x</span></td></tr></table>`)

	if strings.Contains(out, "script") || strings.Contains(out, "alert") {
		t.Errorf("script survived sanitizing: %s", out)
	}
	if strings.Contains(out, "onclick") {
		t.Errorf("event handler survived sanitizing: %s", out)
	}
	for _, want := range []string{`class="a"`, `id="t"`, `data-branches-class="b"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestRegionLookup(t *testing.T) {
	doc, err := Parse(twoWay)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if _, ok := doc.Region(-1); ok {
		t.Error("Expected no region for -1")
	}
	if _, ok := doc.Region(len(doc.Regions)); ok {
		t.Error("Expected no region past the end")
	}
	if r, ok := doc.Region(2); !ok || r.Row != 1 {
		t.Errorf("Region(2) = %+v, %v", r, ok)
	}
}
