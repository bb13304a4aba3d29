package schema

import (
	"errors"
	"testing"
	"time"

	"todoctl/internal/service"
)

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name    string
		in      service.CreateTodo
		wantErr bool
	}{
		{"title only", service.CreateTodo{Title: "Buy milk"}, false},
		{"with description", service.CreateTodo{Title: "Buy milk", Description: "2 liters"}, false},
		{"empty title", service.CreateTodo{Title: ""}, true},
		{"blank title", service.CreateTodo{Title: "   "}, true},
		{"blank title with description", service.CreateTodo{Title: "\t\n", Description: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr {
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if ve.Field != "title" {
				t.Errorf("expected field %q, got %q", "title", ve.Field)
			}
			if ve.Error() != "title: must not be blank" {
				t.Errorf("expected %q, got %q", "title: must not be blank", ve.Error())
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	title := "new"
	blank := " "
	desc := ""
	done := false
	due := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		in        service.UpdateTodo
		wantField string
		wantMsg   string
	}{
		{"title", service.UpdateTodo{Title: &title}, "", ""},
		{"clear description", service.UpdateTodo{Description: &desc}, "", ""},
		{"completed false", service.UpdateTodo{Completed: &done}, "", ""},
		{"due date", service.UpdateTodo{DueDate: &due}, "", ""},
		{"blank title", service.UpdateTodo{Title: &blank, Completed: &done}, "title", "must not be blank"},
		{"nothing set", service.UpdateTodo{}, "", "nothing to update"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpdate(tt.in)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, ve.Field)
			}
			if ve.Message != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, ve.Message)
			}
		})
	}
}
