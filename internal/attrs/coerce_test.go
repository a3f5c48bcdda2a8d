package attrs

import (
	"encoding/json"
	"testing"

	"github.com/groblegark/krecords/internal/model"
)

func field(dataType model.DataType) *model.FieldDefinition {
	return &model.FieldDefinition{APIName: "f", DataType: dataType}
}

func TestCanonicalize(t *testing.T) {
	picklist := &model.FieldDefinition{
		APIName:  "stage",
		DataType: model.TypePicklist,
		Options:  json.RawMessage(`{"picklist":[{"value":"open","label":"Open"},{"value":"won","label":"Won"}]}`),
	}

	tests := []struct {
		name    string
		field   *model.FieldDefinition
		raw     string
		want    string
		wantErr bool
	}{
		{"empty passes through", field(model.TypeNumber), "", "", false},
		{"number trims and normalizes", field(model.TypeNumber), " 1500.50 ", "1500.5", false},
		{"number integer form", field(model.TypeCurrency), "42", "42", false},
		{"number garbage", field(model.TypeNumber), "lots", "", true},
		{"boolean normalizes", field(model.TypeBoolean), "1", "true", false},
		{"boolean garbage", field(model.TypeBoolean), "maybe", "", true},
		{"date passes canonical", field(model.TypeDate), "2026-03-15", "2026-03-15", false},
		{"date from datetime", field(model.TypeDate), "2026-03-15T22:30:00Z", "2026-03-15", false},
		{"date garbage", field(model.TypeDate), "next week", "", true},
		{"datetime to UTC RFC3339", field(model.TypeDatetime), "2026-03-15T10:30:00+02:00", "2026-03-15T08:30:00Z", false},
		{"datetime from bare date", field(model.TypeDatetime), "2026-03-15", "2026-03-15T00:00:00Z", false},
		{"picklist member", picklist, "won", "won", false},
		{"picklist non-member", picklist, "lost", "", true},
		{"text verbatim", field(model.TypeText), "  spaced  ", "  spaced  ", false},
		{"lookup verbatim", field(model.TypeLookup), "rec-anything", "rec-anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.field, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
