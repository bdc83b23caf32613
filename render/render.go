// Package render emits an HTML view of a twin forest as nested lists, one
// list item per instance. The output is a self-contained document suitable
// for inspecting a plant's hierarchy in a browser.
package render

import (
	"html/template"
	"io"

	twinmodel "github.com/go-twinmodel/go-twinmodel"
)

// A LabelFunc returns the display label for a twin instance, typically the
// Label of its resolved model. Returning "" omits the label.
type LabelFunc func(instanceID string) string

// node is the view model one tree node renders from.
type node struct {
	ID       string
	Label    string
	Children []node
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; }
ul.twins { list-style-type: none; }
ul.twins li { margin: 0.2em 0; }
span.twin-id { font-weight: bold; }
span.twin-model { color: #666; margin-left: 0.5em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Roots}}<ul class="twins">{{template "node" .}}</ul>
{{end}}</body>
</html>
{{define "node"}}<li><span class="twin-id">{{.ID}}</span>{{with .Label}}<span class="twin-model">{{.}}</span>{{end}}{{with .Children}}<ul class="twins">{{range .}}{{template "node" .}}{{end}}</ul>{{end}}</li>{{end}}`))

// A Renderer writes HTML documents for twin forests. The zero value renders
// with a default title.
type Renderer struct {
	// Title is the document title. It defaults to "Twin Graph".
	Title string
}

// Render writes an HTML document for the given forest to w. All instance ids
// and labels are HTML-escaped. The label function may be nil, in which case
// nodes render without labels.
func (r Renderer) Render(w io.Writer, forest *twinmodel.Forest, label LabelFunc) error {
	title := r.Title
	if title == "" {
		title = "Twin Graph"
	}

	roots := make([]node, 0, len(forest.Roots))
	for _, root := range forest.Roots {
		roots = append(roots, viewOf(root, label))
	}
	return page.Execute(w, struct {
		Title string
		Roots []node
	}{Title: title, Roots: roots})
}

func viewOf(n *twinmodel.TreeNode, label LabelFunc) node {
	v := node{ID: n.InstanceID}
	if label != nil {
		v.Label = label(n.InstanceID)
	}
	for _, child := range n.Children {
		v.Children = append(v.Children, viewOf(child, label))
	}
	return v
}
