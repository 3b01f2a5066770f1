package devices

import (
	"os"
	"path/filepath"
	"testing"
)

const validProfileJSON = `{
  "device_profile": {
    "id": "test-io-v1",
    "vendor": "Test",
    "model": "IO",
    "version": "1.0"
  },
  "connection": {
    "protocol": "modbus_tcp",
    "port": 502,
    "unit_id": 1
  },
  "registers": [
    {
      "name": "setpoint",
      "address": 200,
      "type": "holding_register",
      "data_type": "int16",
      "access": "read_write"
    }
  ]
}`

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "test-io", validProfileJSON)

	loader, err := NewProfileLoader([]string{dir})
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}

	profile, err := loader.Load("test-io")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if profile.DeviceProfile.ID != "test-io-v1" {
		t.Fatalf("unexpected profile id: %s", profile.DeviceProfile.ID)
	}
	if len(profile.Registers) != 1 || profile.Registers[0].Name != "setpoint" {
		t.Fatalf("unexpected registers: %+v", profile.Registers)
	}

	// Zweiter Load kommt aus dem Cache, auch wenn die Datei weg ist
	os.Remove(filepath.Join(dir, "test-io.json"))
	cached, err := loader.Load("test-io")
	if err != nil {
		t.Fatalf("cached load failed: %v", err)
	}
	if cached != profile {
		t.Fatal("cached load returned a different instance")
	}
}

func TestLoadProfileNotFound(t *testing.T) {
	loader, err := NewProfileLoader([]string{t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}

	if _, err := loader.Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing profile")
	}
}

func TestLoadProfileSchemaViolations(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing-registers", `{
			"device_profile": {"id": "x", "vendor": "v", "model": "m", "version": "1"},
			"connection": {"protocol": "modbus_tcp", "port": 502, "unit_id": 1}
		}`},
		{"bad-register-type", `{
			"device_profile": {"id": "x", "vendor": "v", "model": "m", "version": "1"},
			"connection": {"protocol": "modbus_tcp", "port": 502, "unit_id": 1},
			"registers": [
				{"name": "r", "address": 0, "type": "file_record", "data_type": "int16", "access": "read_only"}
			]
		}`},
		{"wrong-protocol", `{
			"device_profile": {"id": "x", "vendor": "v", "model": "m", "version": "1"},
			"connection": {"protocol": "modbus_rtu", "port": 502, "unit_id": 1},
			"registers": [
				{"name": "r", "address": 0, "type": "coil", "data_type": "bool", "access": "read_only"}
			]
		}`},
		{"not-json", `{`},
	}

	for _, tst := range cases {
		dir := t.TempDir()
		writeProfile(t, dir, "broken", tst.content)

		loader, err := NewProfileLoader([]string{dir})
		if err != nil {
			t.Fatalf("%s: failed to create loader: %v", tst.name, err)
		}

		if _, err := loader.Load("broken"); err == nil {
			t.Fatalf("%s: expected validation error", tst.name)
		}
	}
}
