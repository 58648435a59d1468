package db

import (
	"context"
	"testing"
)

func TestValidateSchemaName(t *testing.T) {
	valid := []string{"public", "clinic", "test_1a2b", "_scratch", "A1B2"}
	for _, v := range valid {
		if err := ValidateSchemaName(v); err != nil {
			t.Errorf("expected %s to be valid, got %v", v, err)
		}
	}

	invalid := []string{"a-b", "a.b", "a b", "'; DROP TABLE", "a/b", "", "1abc"}
	for _, v := range invalid {
		if err := ValidateSchemaName(v); err == nil {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

func TestCreateSchema_InvalidName(t *testing.T) {
	if err := CreateSchema(context.Background(), nil, "invalid-name!", nil); err == nil {
		t.Error("expected error for invalid schema name")
	}
	if err := DropSchema(context.Background(), nil, "x;y"); err == nil {
		t.Error("expected error for invalid schema name")
	}
}
