package companim

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/w3d_browser/w3d"
)

type motionChannelYAML struct {
	DeltaType     MotionDeltaType                      `yaml:"delta_type"`
	VectorLen     uint8                                `yaml:"vector_len"`
	Type          w3d.ChannelType                      `yaml:"type"`
	NumTimeCodes  uint16                               `yaml:"num_time_codes"`
	Pivot         uint16                               `yaml:"pivot"`
	TimeCodes     []TimeCodedDatum                     `yaml:"time_codes,omitempty"`
	AdaptiveDelta *AdaptiveDeltaMotionAnimationChannel `yaml:"adaptive_delta,omitempty"`
}

func (c *MotionChannel) MarshalYAML() (interface{}, error) {
	m := motionChannelYAML{
		DeltaType:    c.DeltaType,
		VectorLen:    c.VectorLen,
		Type:         c.Type,
		NumTimeCodes: c.NumTimeCodes,
		Pivot:        c.Pivot,
	}
	switch d := c.Data.(type) {
	case *MotionTimeCodedData:
		m.TimeCodes = d.TimeCodes
	case *AdaptiveDeltaMotionAnimationChannel:
		m.AdaptiveDelta = d
	}
	return m, nil
}

func (c *MotionChannel) UnmarshalYAML(node *yaml.Node) error {
	var m motionChannelYAML
	if err := node.Decode(&m); err != nil {
		return err
	}
	*c = MotionChannel{
		DeltaType:    m.DeltaType,
		VectorLen:    m.VectorLen,
		Type:         m.Type,
		NumTimeCodes: m.NumTimeCodes,
		Pivot:        m.Pivot,
	}
	switch {
	case m.DeltaType == MotionTimeCoded:
		if m.AdaptiveDelta != nil {
			return errors.Errorf("line %d: time coded motion channel with adaptive delta data", node.Line)
		}
		c.Data = &MotionTimeCodedData{TimeCodes: m.TimeCodes}
	case m.DeltaType.Valid():
		if m.AdaptiveDelta == nil || len(m.TimeCodes) != 0 {
			return errors.Errorf("line %d: %v motion channel needs adaptive_delta data only", node.Line, m.DeltaType)
		}
		c.Data = m.AdaptiveDelta
	default:
		return &w3d.InvalidVariantError{DeltaType: uint8(m.DeltaType)}
	}
	return nil
}

// MarshalYAML dumps the animation in editable form
func MarshalYAML(ca *CompressedAnimation) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ca); err != nil {
		return nil, errors.Wrapf(err, "Failed to marshal animation %q", ca.Header.Name)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML parses and validates output of MarshalYAML
func UnmarshalYAML(data []byte) (*CompressedAnimation, error) {
	ca := &CompressedAnimation{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ca); err != nil {
		return nil, errors.Wrapf(err, "Unmarshaling error")
	}
	if err := ca.Validate(); err != nil {
		return nil, err
	}
	return ca, nil
}
