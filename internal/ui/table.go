package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// tableController is the column-level control surface the root model drives
// on whichever tab is active.
type tableController interface {
	NextColumn()
	PrevColumn()
	JumpToColumn(number int) bool
	SortActiveColumn(desc bool)
	HideActiveColumn() bool
	ShowAllColumns()
	FilterBySelectedValue() bool
	ClearFilter() bool
	TableMeta() string
}

var (
	_ tableController = (*AppointmentsModel)(nil)
	_ tableController = (*CustomersModel)(nil)
)

type column struct {
	key    string
	label  string
	width  int
	hidden bool
}

// tableModel holds the cursor, column and sort/filter state shared by the
// list screens. value returns the sortable/filterable text of a cell.
type tableModel[T any] struct {
	allRows []T
	rows    []T
	cursor  int
	offset  int
	page    int

	columns      []column
	activeColumn int
	sortKey      string
	sortDesc     bool
	filterKey    string
	filterValue  string

	value func(row T, key string) string
}

func newTableModel[T any](columns []column, value func(T, string) string) *tableModel[T] {
	return &tableModel[T]{
		columns: columns,
		value:   value,
		page:    10,
	}
}

// SetRows replaces the rows, keeping sort, filter and cursor position.
func (m *tableModel[T]) SetRows(rows []T) {
	m.allRows = append([]T(nil), rows...)
	m.rebuild()
}

// Selected returns the row under the cursor.
func (m *tableModel[T]) Selected() (T, bool) {
	var zero T
	if len(m.rows) == 0 || m.cursor >= len(m.rows) {
		return zero, false
	}
	return m.rows[m.cursor], true
}

func (m *tableModel[T]) ApplyPrefs(prefs TablePrefs) {
	if prefs.SortKey != "" {
		m.sortKey = prefs.SortKey
		m.sortDesc = prefs.SortDesc
	}
	hidden := make(map[string]bool, len(prefs.HiddenColumns))
	for _, c := range prefs.HiddenColumns {
		hidden[c] = true
	}
	for i := range m.columns {
		m.columns[i].hidden = hidden[m.columns[i].key]
	}
	if prefs.ActiveColumn != "" {
		for i, c := range m.columns {
			if c.key == prefs.ActiveColumn {
				m.activeColumn = i
				break
			}
		}
	}
	m.ensureVisibleActiveColumn()
	m.rebuild()
}

func (m *tableModel[T]) Prefs() TablePrefs {
	var hidden []string
	for _, c := range m.columns {
		if c.hidden {
			hidden = append(hidden, c.key)
		}
	}
	return TablePrefs{
		SortKey:       m.sortKey,
		SortDesc:      m.sortDesc,
		HiddenColumns: hidden,
		ActiveColumn:  m.columns[m.activeColumn].key,
	}
}

func (m *tableModel[T]) rebuild() {
	rows := append([]T(nil), m.allRows...)

	if m.filterKey != "" && m.filterValue != "" {
		filtered := make([]T, 0, len(rows))
		target := strings.ToLower(strings.TrimSpace(m.filterValue))
		for _, r := range rows {
			if strings.EqualFold(strings.TrimSpace(m.value(r, m.filterKey)), target) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	if m.sortKey != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			left := strings.ToLower(m.value(rows[i], m.sortKey))
			right := strings.ToLower(m.value(rows[j], m.sortKey))
			if m.sortDesc {
				return left > right
			}
			return left < right
		})
	}

	m.rows = rows
	m.clampCursor()
}

func (m *tableModel[T]) clampCursor() {
	m.moveTo(m.cursor)
}

// moveTo puts the cursor on idx, clamped to the rows, and scrolls the page
// so it stays visible.
func (m *tableModel[T]) moveTo(idx int) {
	if len(m.rows) == 0 {
		m.cursor, m.offset = 0, 0
		return
	}
	m.cursor = min(max(idx, 0), len(m.rows)-1)
	m.scrollIntoView()
}

func (m *tableModel[T]) scrollIntoView() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.page {
		m.offset = m.cursor - m.page + 1
	}
}

// stepColumn moves the active column by dir, skipping hidden ones.
func (m *tableModel[T]) stepColumn(dir int) {
	n := len(m.columns)
	for i := 1; i < n; i++ {
		idx := ((m.activeColumn+dir*i)%n + n) % n
		if !m.columns[idx].hidden {
			m.activeColumn = idx
			return
		}
	}
}

func (m *tableModel[T]) NextColumn() { m.stepColumn(1) }

func (m *tableModel[T]) PrevColumn() { m.stepColumn(-1) }

func (m *tableModel[T]) JumpToColumn(number int) bool {
	if number < 1 || number > len(m.columns) {
		return false
	}
	idx := number - 1
	if m.columns[idx].hidden {
		return false
	}
	m.activeColumn = idx
	return true
}

func (m *tableModel[T]) SortActiveColumn(desc bool) {
	m.sortKey = m.columns[m.activeColumn].key
	m.sortDesc = desc
	m.rebuild()
}

func (m *tableModel[T]) HideActiveColumn() bool {
	if len(m.visibleColumnIndexes()) <= 1 {
		return false
	}
	m.columns[m.activeColumn].hidden = true
	m.ensureVisibleActiveColumn()
	return true
}

func (m *tableModel[T]) ShowAllColumns() {
	for i := range m.columns {
		m.columns[i].hidden = false
	}
}

func (m *tableModel[T]) FilterBySelectedValue() bool {
	if len(m.rows) == 0 {
		return false
	}
	key := m.columns[m.activeColumn].key
	value := strings.TrimSpace(m.value(m.rows[m.cursor], key))
	if value == "" {
		return false
	}
	m.filterKey = key
	m.filterValue = value
	m.rebuild()
	return true
}

func (m *tableModel[T]) ClearFilter() bool {
	if m.filterKey == "" {
		return false
	}
	m.filterKey = ""
	m.filterValue = ""
	m.rebuild()
	return true
}

func (m *tableModel[T]) TableMeta() string {
	col := strings.ToUpper(m.columns[m.activeColumn].label)
	parts := []string{fmt.Sprintf("col %s", col)}
	if m.sortKey != "" {
		order := "asc"
		if m.sortDesc {
			order = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", strings.ToUpper(m.sortKey), order))
	}
	if m.filterKey != "" {
		parts = append(parts, fmt.Sprintf("filter %s=%q", strings.ToUpper(m.filterKey), m.filterValue))
	}
	return strings.Join(parts, "  ·  ")
}

func (m *tableModel[T]) visibleColumnIndexes() []int {
	var idxs []int
	for i, c := range m.columns {
		if !c.hidden {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (m *tableModel[T]) ensureVisibleActiveColumn() {
	if !m.columns[m.activeColumn].hidden {
		return
	}
	for i := range m.columns {
		if !m.columns[i].hidden {
			m.activeColumn = i
			return
		}
	}
	m.columns[0].hidden = false
	m.activeColumn = 0
}

// render draws the header, the visible page of rows and a status line.
func (m *tableModel[T]) render(width, height int, cell func(row T, col column) string, status string) string {
	visible := m.visibleColumnIndexes()
	if len(visible) == 0 {
		return EmptyStateStyle.Width(width).Height(height).Render("No visible columns. Press C to show all columns.")
	}

	widths := make([]int, 0, len(visible))
	headers := make([]string, 0, len(visible))
	totalFixed := 0
	for _, idx := range visible {
		col := m.columns[idx]
		label := strings.ToUpper(col.label)
		if idx == m.activeColumn {
			label = "❋ " + label
		}
		if m.sortKey == col.key {
			if m.sortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		cellWidth := max(col.width, lipgloss.Width(label)+2)
		totalFixed += cellWidth
		widths = append(widths, cellWidth)
		headers = append(headers, label)
	}

	if extra := width - totalFixed - 4; extra > 0 {
		widths[len(widths)-1] += extra
	}

	header := renderTableRow(headers, widths, TableHeaderStyle.Bold(true))

	m.page = max(1, height-3)
	m.scrollIntoView()

	var rows []string
	for i := m.offset; i < len(m.rows) && i < m.offset+m.page; i++ {
		style := NormalRowStyle
		if i%2 == 1 {
			style = style.Background(ColorStripe)
		}
		if i == m.cursor {
			style = SelectedRowStyle
		}

		cells := make([]string, 0, len(visible))
		for _, idx := range visible {
			cells = append(cells, cell(m.rows[i], m.columns[idx]))
		}
		rows = append(rows, renderTableRow(cells, widths, style))
	}

	filterInfo := ""
	if m.filterKey != "" {
		filterInfo = fmt.Sprintf("  ·  filtered: %d/%d", len(m.rows), len(m.allRows))
	}
	statusLine := StatusBarStyle.Render(fmt.Sprintf("%s%s  ·  %s", status, filterInfo, m.TableMeta()))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		strings.Join(rows, "\n"),
		"",
		statusLine,
	)
}

func (m *tableModel[T]) MoveDown() { m.moveTo(m.cursor + 1) }

func (m *tableModel[T]) MoveUp() { m.moveTo(m.cursor - 1) }

func (m *tableModel[T]) JumpToTop() { m.moveTo(0) }

func (m *tableModel[T]) JumpToBottom() { m.moveTo(len(m.rows) - 1) }

func (m *tableModel[T]) HalfPageDown() { m.moveTo(m.cursor + max(1, m.page/2)) }

func (m *tableModel[T]) HalfPageUp() { m.moveTo(m.cursor - max(1, m.page/2)) }

func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}
