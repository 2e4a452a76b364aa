package components

import (
	"strconv"

	"github.com/evertras/bubble-table/table"

	"github.com/allbin/balancelog/internal/tui/styles"
	"github.com/allbin/balancelog/registry"
)

const (
	columnKeyIndex    = "index"
	columnKeyLabel    = "label"
	columnKeyIdentity = "identity"
	columnKeyPath     = "path"
	columnKeyAdapter  = "adapter"
)

// NewBalanceTable lists balances as "#, label, identity, path, adapter"
func NewBalanceTable(balances []registry.Descriptor) table.Model {
	columns := []table.Column{
		table.NewColumn(columnKeyIndex, "#", 4),
		table.NewColumn(columnKeyLabel, "Label", 20),
		table.NewColumn(columnKeyIdentity, "Identity", 14),
		table.NewColumn(columnKeyPath, "Port", 16),
		table.NewColumn(columnKeyAdapter, "Adapter", 12),
	}

	rows := make([]table.Row, 0, len(balances))
	for i, b := range balances {
		rows = append(rows, table.NewRow(BalanceRowData(i, b)))
	}

	return table.New(columns).
		WithRows(rows).
		WithBaseStyle(styles.TableBaseStyle).
		HeaderStyle(styles.TableHeaderStyle).
		HighlightStyle(styles.TableHighlightStyle).
		BorderRounded()
}

// BalanceRowData is the table row for one balance. Unidentified balances show
// a muted placeholder instead of an identity.
func BalanceRowData(i int, b registry.Descriptor) table.RowData {
	var identity any = b.Identity
	if !b.Identified {
		identity = table.NewStyledCell("(no reply)", styles.MutedStyle)
	}

	var label any = b.Label
	if !b.Labelled() {
		label = table.NewStyledCell(b.Label, styles.MutedStyle)
	}

	return table.RowData{
		columnKeyIndex:    strconv.Itoa(i + 1),
		columnKeyLabel:    label,
		columnKeyIdentity: identity,
		columnKeyPath:     b.Path,
		columnKeyAdapter:  b.USBID(),
	}
}
