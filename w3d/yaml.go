package w3d

import (
	"encoding/hex"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// HexBytes is raw payload that is kept as a hex string in yaml dumps
type HexBytes []byte

func (b HexBytes) MarshalYAML() (interface{}, error) {
	return hex.EncodeToString(b), nil
}

func (b *HexBytes) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrapf(err, "line %d: bad hex bytes", node.Line)
	}
	*b = data
	return nil
}

func formatFloat(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return ".nan"
	case math.IsInf(float64(f), 1):
		return ".inf"
	case math.IsInf(float64(f), -1):
		return "-.inf"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// values are dumped in flow style: [0.1, 0, 0, 1]
func (v Value) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range v {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: formatFloat(f)})
	}
	return node, nil
}

func (t ChannelType) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:        yaml.ScalarNode,
		Value:       strconv.Itoa(int(t)),
		LineComment: t.String(),
	}, nil
}
