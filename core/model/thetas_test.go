package model

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

func TestSaveLoadThetas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.json")
	want := Thetas{Theta0: 8499.599649933216, Theta1: -0.0214489635917023}

	if err := SaveThetas(path, want); err != nil {
		t.Fatalf("SaveThetas() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Theta0"`) || !strings.Contains(string(data), `"Theta1"`) {
		t.Errorf("unexpected file content: %s", data)
	}

	got, err := LoadThetas(path)
	if err != nil {
		t.Fatalf("LoadThetas() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadThetas() = %+v, want %+v", got, want)
	}
}

func TestSaveThetas_RejectsNonFinite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.json")
	err := SaveThetas(path, Thetas{Theta0: math.NaN(), Theta1: 1})

	var valErr *errors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("no file should be written for invalid parameters")
	}
}

func TestLoadThetas_Malformed(t *testing.T) {
	tests := []struct {
		name       string
		content    *string
		wantReason string
	}{
		{name: "missing file", content: nil, wantReason: "file not found"},
		{name: "invalid json", content: ptr(`{"Theta0": 1,`), wantReason: "invalid JSON"},
		{name: "missing key", content: ptr(`{"Theta0": 1}`), wantReason: "missing keys"},
		{name: "non numeric", content: ptr(`{"Theta0": "abc", "Theta1": 2}`), wantReason: "invalid numeric data for 'Theta0'"},
		{name: "null value", content: ptr(`{"Theta0": 1, "Theta1": null}`), wantReason: "invalid numeric data for 'Theta1'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "values.json")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			_, err := LoadThetas(path)
			var storeErr *errors.ParameterStoreError
			if !errors.As(err, &storeErr) {
				t.Fatalf("expected ParameterStoreError, got %v", err)
			}
			if !strings.HasPrefix(storeErr.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want prefix %q", storeErr.Reason, tt.wantReason)
			}
		})
	}
}

func TestDecodeThetas_NumericString(t *testing.T) {
	got, err := DecodeThetas("inline", strings.NewReader(`{"Theta0": "12.5", "Theta1": -1}`))
	if err != nil {
		t.Fatalf("DecodeThetas() error = %v", err)
	}
	if got.Theta0 != 12.5 || got.Theta1 != -1 {
		t.Errorf("DecodeThetas() = %+v", got)
	}
}

func TestBaseEstimator(t *testing.T) {
	var e BaseEstimator
	if e.IsFitted() || e.State() != NotFitted {
		t.Fatal("zero value must be not fitted")
	}
	e.SetFitted()
	if !e.IsFitted() || e.State().String() != "fitted" {
		t.Error("SetFitted should mark the estimator fitted")
	}
	e.Reset()
	if e.IsFitted() {
		t.Error("Reset should clear the fitted state")
	}
}

func ptr(s string) *string { return &s }
