package paths

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestResolverPaths(t *testing.T) {
	r := New("/raw", "/cache")

	tests := []struct {
		name string
		got  func() (string, error)
		want string
	}{
		{"stir", func() (string, error) { return r.StirPath("traj_s12.0", 0, 1) },
			filepath.Join("/raw", "traj_s12.0", "step1", "stir", "stir_tracer0.dat")},
		{"skynet", func() (string, error) { return r.SkynetPath("traj_s12.0", 42, 2) },
			filepath.Join("/raw", "traj_s12.0", "step2", "skynet", "tracer_42.h5")},
		{"cache", func() (string, error) { return r.CachePath("traj_s12.0", 0, []int{1, 2}) },
			filepath.Join("/cache", "traj_s12.0", "tracer0_steps1-2.json")},
		{"cache single step", func() (string, error) { return r.CachePath("traj_s12.0", 3, []int{2}) },
			filepath.Join("/cache", "traj_s12.0", "tracer3_steps2.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.got()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolverIsDeterministic(t *testing.T) {
	r := New("/raw", "/cache")
	a, _ := r.CachePath("m", 1, []int{1, 2})
	b, _ := r.CachePath("m", 1, []int{1, 2})
	if a != b {
		t.Errorf("paths differ: %s vs %s", a, b)
	}
	c, _ := r.CachePath("m", 1, []int{2, 1})
	if a == c {
		t.Error("different step lists must not share a cache path")
	}
}

func TestResolverMissingInputs(t *testing.T) {
	r := New("/raw", "/cache")

	tests := []struct {
		name string
		fn   func() (string, error)
	}{
		{"no model", func() (string, error) { return r.StirPath("", 0, 1) }},
		{"negative tracer", func() (string, error) { return r.SkynetPath("m", -1, 1) }},
		{"zero step", func() (string, error) { return r.StirPath("m", 0, 0) }},
		{"no steps", func() (string, error) { return r.CachePath("m", 0, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); !errors.Is(err, ErrMissingInput) {
				t.Errorf("expected ErrMissingInput, got %v", err)
			}
		})
	}
}

func TestKey(t *testing.T) {
	k := Key{Model: "traj_s12.0", TracerID: 0, Steps: []int{1, 2}}
	if err := k.Validate(); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if k.String() != "traj_s12.0/tracer0/steps1-2" {
		t.Errorf("unexpected key string %s", k.String())
	}
	if !k.Equal(Key{Model: "traj_s12.0", TracerID: 0, Steps: []int{1, 2}}) {
		t.Error("equal keys compare unequal")
	}
	if k.Equal(Key{Model: "traj_s12.0", TracerID: 0, Steps: []int{1}}) {
		t.Error("different steps compare equal")
	}

	bad := []Key{
		{TracerID: 0, Steps: []int{1}},
		{Model: "m", TracerID: -1, Steps: []int{1}},
		{Model: "m", TracerID: 0},
		{Model: "m", TracerID: 0, Steps: []int{0}},
	}
	for _, b := range bad {
		if err := b.Validate(); !errors.Is(err, ErrMissingInput) {
			t.Errorf("key %+v: expected ErrMissingInput, got %v", b, err)
		}
	}
}
