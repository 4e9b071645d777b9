// Package render turns backend collections into display trees. Renderers
// are pure: they never mutate their input and never touch the network.
package render

// Node is the content of one container.
type Node interface {
	// Kind names the node type for templates: table, empty, stats or options.
	Kind() string
}

// Badge is the visual category of a status value.
type Badge string

const (
	BadgePending   Badge = "pending"
	BadgeActive    Badge = "active"
	BadgeApproved  Badge = "approved"
	BadgeRejected  Badge = "rejected"
	BadgeClosed    Badge = "closed"
	BadgeDisbursed Badge = "disbursed"
	BadgeNeutral   Badge = "neutral"
)

// Tone colors a cell's text.
type Tone string

const (
	ToneNone     Tone = ""
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
)

// ActionKind says what a row button does when pressed.
type ActionKind string

const (
	// OpenModal opens the modal named by Target.
	OpenModal ActionKind = "open-modal"
	// Submit dispatches the action named by Target.
	Submit ActionKind = "submit"
)

// RowAction is a button rendered inside a table cell.
type RowAction struct {
	Label  string
	Kind   ActionKind
	Target string
	Params map[string]string
	// Style is the button variant: success or danger.
	Style string
}

// Cell is one table cell. A cell with a Badge renders as a badge; a cell
// with Actions renders its buttons instead of Text.
type Cell struct {
	Text       string
	Badge      Badge
	Tone       Tone
	Strong     bool
	Capitalize bool
	Actions    []RowAction
}

// Table is a non-empty collection rendered as rows.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

func (*Table) Kind() string { return "table" }

// EmptyState replaces a table when the collection is empty.
type EmptyState struct {
	Icon    string
	Message string
}

func (*EmptyState) Kind() string { return "empty" }

type StatCard struct {
	Label string
	Value string
}

// StatCards is a row of summary figures.
type StatCards struct {
	Cards []StatCard
}

func (*StatCards) Kind() string { return "stats" }

type Option struct {
	Value string
	Label string
}

// OptionList fills a select control. The placeholder option has an empty value.
type OptionList struct {
	Placeholder string
	Options     []Option
}

func (*OptionList) Kind() string { return "options" }

// Blank clears a container.
type Blank struct{}

func (Blank) Kind() string { return "blank" }
