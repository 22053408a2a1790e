package config

import "testing"

func TestParseExportSettings(t *testing.T) {
	es, err := ParseExportSettings([]byte("compression: AD\nstrict_version: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if es.Compression != CompressionAdaptiveDelta {
		t.Errorf("Compression = %q, expected %q", es.Compression, CompressionAdaptiveDelta)
	}
	if !es.StrictVersion {
		t.Errorf("StrictVersion not set")
	}
	if es.Encoding != DefaultEncoding {
		t.Errorf("Encoding = %q, expected default %q", es.Encoding, DefaultEncoding)
	}
}

func TestParseExportSettingsUnknownCompression(t *testing.T) {
	if _, err := ParseExportSettings([]byte("compression: zip\n")); err == nil {
		t.Errorf("expected error for unknown compression")
	}
}

func TestSetEncoding(t *testing.T) {
	defer SetEncoding(DefaultEncoding)

	if err := SetEncoding("Windows 1251"); err != nil {
		t.Fatal(err)
	}
	if GetEncoding().String() != "Windows 1251" {
		t.Errorf("encoding not switched: %v", GetEncoding())
	}
	if err := SetEncoding("no such page"); err == nil {
		t.Errorf("expected error for unknown encoding")
	}
}
