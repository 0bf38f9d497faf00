package stats

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// Format 模擬報告的輸出格式。
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat 解析 table / json / yaml。
func ParseFormat(s string) (Format, bool) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, true
	}
	return "", false
}

// Renderer 把 StatReport 或 EstimatorPlayers 寫成機器可讀的格式。
type Renderer interface {
	Render(w io.Writer, v any) error
}

// RendererFor 回傳對應格式的 Renderer；table 由報告自己的 StdOut / Out 印出，回傳 nil。
func RendererFor(f Format) Renderer {
	switch f {
	case FormatJSON:
		return jsonRenderer{}
	case FormatYAML:
		return yamlRenderer{}
	}
	return nil
}

type jsonRenderer struct{}

func (jsonRenderer) Render(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// yamlRenderer 純量陣列（贏分分桶、ladder 落點次數）單行輸出，其餘維持展開。
type yamlRenderer struct{}

func (yamlRenderer) Render(w io.Writer, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return err
	}
	flowScalarLists(&node)
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func flowScalarLists(n *yaml.Node) {
	if n == nil {
		return
	}
	for _, c := range n.Content {
		flowScalarLists(c)
	}
	if n.Kind != yaml.SequenceNode {
		return
	}
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return
		}
	}
	n.Style = yaml.FlowStyle
}
