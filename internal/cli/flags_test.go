package cli

import (
	"reflect"
	"testing"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	// Test default values
	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Direction", flags.Direction, "id_to_jp"},
		{"Output", flags.Output, OutputText},
		{"Provider", flags.Provider, ""},
		{"APIKey", flags.APIKey, ""},
		{"BatchFile", flags.BatchFile, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	// Test boolean defaults (should be false)
	boolTests := []struct {
		name  string
		value bool
	}{
		{"Swap", flags.Swap},
		{"Save", flags.Save},
		{"Speak", flags.Speak},
		{"ListModels", flags.ListModels},
	}

	for _, tt := range boolTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value {
				t.Errorf("%s should be false by default", tt.name)
			}
		})
	}
}
