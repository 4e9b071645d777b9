package render

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"
)

//go:embed templates/fragment.html
var fragmentSource string

var fragment = template.Must(template.New("fragment").
	Funcs(template.FuncMap{"actionPath": actionPath}).
	Parse(fragmentSource))

// FragmentContext carries what a rendered node needs to post back to the
// console: the role's route prefix and the page's form nonce.
type FragmentContext struct {
	Base  string
	Nonce string
	// Selected marks the chosen value of an option list.
	Selected string
	// Select suppresses the loading placeholder inside a select control.
	Select bool
}

type fragmentData struct {
	Node Node
	FragmentContext
}

// WriteHTML renders n through html/template. Every backend string is
// escaped for its context. A nil node renders the loading placeholder.
func WriteHTML(w io.Writer, n Node, ctx FragmentContext) error {
	return fragment.Execute(w, fragmentData{Node: n, FragmentContext: ctx})
}

// HTML renders n into a string for embedding in a page template.
func HTML(n Node, ctx FragmentContext) (template.HTML, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, n, ctx); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func actionPath(a RowAction) string {
	if a.Kind == OpenModal {
		return "modals/" + a.Target + "/open"
	}
	return "actions/" + a.Target
}
