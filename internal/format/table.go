package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	xansi "github.com/charmbracelet/x/ansi"
)

// MaxCell caps the display width of one table cell.
const MaxCell = 48

// Table is a pre-rendered grid. Values that are not a Table (or a Tabular) are
// shown as key/value rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabular values know how to lay themselves out as a table.
type Tabular interface {
	Table() Table
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func WriteTable(w io.Writer, v any) error {
	var t Table
	switch x := v.(type) {
	case Table:
		t = x
	case *Table:
		t = *x
	case Tabular:
		t = x.Table()
	default:
		kv, err := keyValues(v)
		if err != nil {
			return err
		}
		t = kv
	}
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}

	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]string, len(r))
		for j, c := range r {
			rows[i][j] = Truncate(c, MaxCell)
		}
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

// keyValues flattens v's JSON form into field/value rows.
func keyValues(v any) (Table, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Table{}, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return Table{Headers: []string{"value"}, Rows: [][]string{{string(b)}}}, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := Table{Headers: []string{"field", "value"}}
	for _, k := range keys {
		t.Rows = append(t.Rows, []string{k, scalar(m[k])})
	}
	return t, nil
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any, []any:
		b, _ := json.Marshal(x)
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// Truncate shortens s to w display cells, marking the cut with an ellipsis.
func Truncate(s string, w int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	if w <= 1 {
		return "…"
	}
	return xansi.Cut(s, 0, w-1) + "…"
}
