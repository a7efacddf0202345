package page

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)


const FallbackPresenter = ""


// Presents one node given its already presented children.
// Presenters are pure and stateless. They read variables through `node.Context`.
type Presenter func(node *RenderNode, children []string) string


type PresenterSet struct {
	presenters *Registry[Presenter]
}

func NewPresenterSet(presenters *Registry[Presenter]) *PresenterSet {
	return &PresenterSet{
		presenters: presenters,
	}
}

func (self *PresenterSet) Presenters() *Registry[Presenter] {
	return self.presenters
}

func (self *PresenterSet) Present(node *RenderNode) string {
	children := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, self.Present(child))
	}
	presenter, ok := self.presenters.Get(node.Type)
	if !ok {
		presenter, ok = self.presenters.Get(FallbackPresenter)
	}
	if !ok {
		return strings.Join(children, "\n")
	}
	return presenter(node, children)
}


// Element types as the server names them.
const (
	TextType    = "Text"
	CardType    = "Card"
	TableType   = "Table"
	DividerType = "Divider"
	ButtonType  = "Button"
	InputType   = "Input"
	ChartType   = "Chart"
	TabsType    = "Tabs"
	TabType     = "Tab"
)


// Text presenters for terminals.
func NewTextPresenterSet() *PresenterSet {
	presenters := NewRegistry[Presenter]()
	set := NewPresenterSet(presenters)

	presenters.MustRegister(WrapperType, func(node *RenderNode, children []string) string {
		return strings.Join(children, "\n")
	})
	presenters.MustRegister(TextType, func(node *RenderNode, children []string) string {
		return textBlock(dataString(node.Data, "text"), children)
	})
	presenters.MustRegister(DividerType, func(node *RenderNode, children []string) string {
		return strings.Repeat("-", 40)
	})
	presenters.MustRegister(ButtonType, func(node *RenderNode, children []string) string {
		return fmt.Sprintf("[ %s ]", dataString(node.Data, "text"))
	})
	// an input is bound to the variable with its own id
	presenters.MustRegister(InputType, func(node *RenderNode, children []string) string {
		value := ""
		if v, ok := node.Context.Variable(node.Id); ok && v != nil {
			value = fmt.Sprint(v)
		}
		label := propString(node.Props, "placeholder")
		if label == "" {
			label = node.Id
		}
		return fmt.Sprintf("%s: [%s]", label, value)
	})
	presenters.MustRegister(CardType, func(node *RenderNode, children []string) string {
		title := ""
		if header, ok := node.Props["title"].(*RenderNode); ok {
			title = set.Present(header)
		} else {
			title = propString(node.Props, "title")
		}
		if len(children) == 0 {
			children = []string{dataString(node.Data, "text")}
		}
		return titledBlock(title, children)
	})
	presenters.MustRegister(TabsType, func(node *RenderNode, children []string) string {
		return strings.Join(children, "\n")
	})
	presenters.MustRegister(TabType, func(node *RenderNode, children []string) string {
		return titledBlock(fmt.Sprintf("[%s]", propString(node.Props, "tab")), children)
	})
	presenters.MustRegister(TableType, func(node *RenderNode, children []string) string {
		lines := []string{}
		if data, ok := node.Data.(map[string]any); ok {
			if headers, ok := data["headers"].([]any); ok {
				lines = append(lines, joinCells(headers))
			}
			if rows, ok := data["rows"].([]any); ok {
				for _, rowValue := range rows {
					row, ok := rowValue.(map[string]any)
					if !ok {
						continue
					}
					if cells, ok := row["data"].([]any); ok {
						lines = append(lines, joinCells(cells))
					}
				}
			}
		}
		return titledBlock("table", append(lines, children...))
	})
	presenters.MustRegister(ChartType, func(node *RenderNode, children []string) string {
		lines := []string{}
		if charts, ok := node.Data.(map[string]any); ok {
			titles := maps.Keys(charts)
			slices.Sort(titles)
			for _, title := range titles {
				group, _ := charts[title].(map[string]any)
				series, _ := group["series"].([]any)
				for _, singleValue := range series {
					single, _ := singleValue.(map[string]any)
					points, _ := single["data"].([]any)
					lines = append(lines, fmt.Sprintf("%s/%v: %d points", title, single["name"], len(points)))
				}
			}
		}
		return titledBlock("chart", lines)
	})
	presenters.MustRegister(FallbackPresenter, func(node *RenderNode, children []string) string {
		return titledBlock(fmt.Sprintf("<%s>", node.Type), children)
	})

	return set
}

func propString(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func dataString(data any, key string) string {
	switch v := data.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v[key].(string); ok {
			return s
		}
		if v[key] != nil {
			b, _ := json.Marshal(v[key])
			return string(b)
		}
	}
	return ""
}

func textBlock(text string, children []string) string {
	if len(children) == 0 {
		return text
	}
	return strings.Join(append([]string{text}, children...), "\n")
}

func titledBlock(title string, children []string) string {
	lines := []string{title}
	for _, child := range children {
		for _, line := range strings.Split(child, "\n") {
			lines = append(lines, "  "+line)
		}
	}
	return strings.Join(lines, "\n")
}

func joinCells(cells []any) string {
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		parts = append(parts, fmt.Sprint(cell))
	}
	return strings.Join(parts, " | ")
}
