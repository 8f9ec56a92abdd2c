package hotkeys

import (
	"errors"
	"slices"
	"testing"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/platform"
)

func TestBindings(t *testing.T) {
	noop := func() {}
	tests := []struct {
		name string
		cfg  config.Hotkeys
		a    Actions
		want []string
	}{
		{"both", config.Hotkeys{Toggle: "Mod4-s", Release: "Mod4-x"}, Actions{Toggle: noop, Release: noop}, []string{"toggle", "release"}},
		{"blank release", config.Hotkeys{Toggle: "Mod4-s", Release: "  "}, Actions{Toggle: noop, Release: noop}, []string{"toggle"}},
		{"missing action", config.Hotkeys{Toggle: "Mod4-s", Release: "Mod4-x"}, Actions{Release: noop}, []string{"release"}},
		{"none", config.Hotkeys{}, Actions{Toggle: noop, Release: noop}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, b := range Bindings(tt.cfg, tt.a) {
				got = append(got, b.Name)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Bindings() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBindingsTrimSequence(t *testing.T) {
	b := Bindings(config.Hotkeys{Toggle: " Mod4-Shift-s "}, Actions{Toggle: func() {}})
	if len(b) != 1 || b[0].Sequence != "Mod4-Shift-s" {
		t.Fatalf("unexpected bindings %+v", b)
	}
}

func TestNewHandler_RequiresX11(t *testing.T) {
	_, err := NewHandler(platform.NewMemoryBackend(1), nil)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestIgnoreMasks(t *testing.T) {
	got := ignoreMasks([]uint16{2, 16})
	want := []uint16{0, 2, 16, 18}
	if !slices.Equal(got, want) {
		t.Fatalf("ignoreMasks() = %v, want %v", got, want)
	}
}
