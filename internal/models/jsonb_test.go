package models

import (
	"reflect"
	"testing"
)

func TestJSONB_Scan(t *testing.T) {
	want := JSONB{"theme": "dark"}

	// postgres hands back []byte, sqlite hands back string
	for _, src := range []interface{}{[]byte(`{"theme":"dark"}`), `{"theme":"dark"}`} {
		var j JSONB
		if err := j.Scan(src); err != nil {
			t.Fatalf("scan %T failed: %v", src, err)
		}
		if !reflect.DeepEqual(j, want) {
			t.Errorf("scan %T = %v, want %v", src, j, want)
		}
	}

	var j JSONB
	if err := j.Scan(nil); err != nil {
		t.Fatalf("scan nil failed: %v", err)
	}
	if j != nil {
		t.Errorf("scan nil = %v, want nil", j)
	}

	if err := j.Scan(42); err == nil {
		t.Error("expected error for unsupported source type")
	}
}
