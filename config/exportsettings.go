package config

import (
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	CompressionTimeCoded     = "tc"
	CompressionAdaptiveDelta = "ad"
)

type ExportSettings struct {
	// tc or ad, flavor of written compressed animations
	Compression   string `yaml:"compression"`
	Encoding      string `yaml:"encoding"`
	StrictVersion bool   `yaml:"strict_version"`
}

func DefaultExportSettings() *ExportSettings {
	return &ExportSettings{
		Compression: CompressionTimeCoded,
		Encoding:    DefaultEncoding,
	}
}

func ParseExportSettings(data []byte) (*ExportSettings, error) {
	es := DefaultExportSettings()
	if err := yaml.Unmarshal(data, es); err != nil {
		return nil, errors.Wrapf(err, "Unmarshaling error")
	}
	es.Compression = strings.ToLower(strings.TrimSpace(es.Compression))
	switch es.Compression {
	case CompressionTimeCoded, CompressionAdaptiveDelta:
	default:
		return nil, errors.Errorf("Unknown compression %q, expected %q or %q",
			es.Compression, CompressionTimeCoded, CompressionAdaptiveDelta)
	}
	return es, nil
}

func LoadExportSettings(path string) (*ExportSettings, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read file %s", path)
	}
	return ParseExportSettings(data)
}

// Apply pushes global parts of the settings into the package state
func (es *ExportSettings) Apply() error {
	if es.Encoding != "" {
		if err := SetEncoding(es.Encoding); err != nil {
			return err
		}
	}
	SetStrictVersion(es.StrictVersion)
	return nil
}
