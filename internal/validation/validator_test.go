// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/wayfarer/internal/geo"
	"github.com/tomtom215/wayfarer/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_ReviewSubmission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     models.ReviewSubmission
		wantField string
		wantTag   string
	}{
		{name: "valid lower bound", input: models.ReviewSubmission{FacilityID: "f1", Rating: 1}},
		{name: "valid upper bound", input: models.ReviewSubmission{FacilityID: "f1", Rating: 5, Comment: "clean"}},
		{name: "rating zero", input: models.ReviewSubmission{FacilityID: "f1", Rating: 0}, wantField: "rating", wantTag: "required"},
		{name: "rating six", input: models.ReviewSubmission{FacilityID: "f1", Rating: 6}, wantField: "rating", wantTag: "max"},
		{name: "negative rating", input: models.ReviewSubmission{FacilityID: "f1", Rating: -2}, wantField: "rating", wantTag: "min"},
		{name: "missing facility", input: models.ReviewSubmission{Rating: 3}, wantField: "facility_id", wantTag: "required"},
		{
			name:      "comment too long",
			input:     models.ReviewSubmission{FacilityID: "f1", Rating: 3, Comment: strings.Repeat("x", 1001)},
			wantField: "comment",
			wantTag:   "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("unexpected validation error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatalf("expected error on %s", tt.wantField)
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("field = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("tag = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "numeric max",
			input: &models.ReviewSubmission{FacilityID: "f1", Rating: 9},
			want:  "rating must be at most 5",
		},
		{
			name:  "string max",
			input: &models.ReviewSubmission{FacilityID: "f1", Rating: 2, Author: strings.Repeat("a", 101)},
			want:  "author must be at most 100 characters",
		},
		{
			name:  "required",
			input: &models.ReviewSubmission{Rating: 2},
			want:  "facility_id is required",
		},
		{
			name:  "cross field",
			input: &geo.Bounds{South: 10, West: 0, North: 5, East: 1},
			want:  "north must not be less than south",
		},
		{
			name:  "range",
			input: &models.Position{Latitude: 91},
			want:  "latitude must be less than or equal to 90",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if verr.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", verr.Error(), tt.want)
			}
		})
	}
}

func TestValidateStruct_Bounds(t *testing.T) {
	t.Parallel()

	valid := geo.Bounds{South: 48.1, West: 11.4, North: 48.2, East: 11.7}
	if verr := ValidateStruct(&valid); verr != nil {
		t.Errorf("unexpected error: %v", verr)
	}

	inverted := geo.Bounds{South: 48.2, West: 11.7, North: 48.1, East: 11.4}
	verr := ValidateStruct(&inverted)
	if verr == nil {
		t.Fatal("expected error for inverted bounds")
	}
	if got := len(verr.Errors()); got != 2 {
		t.Errorf("expected 2 errors (north, east), got %d", got)
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	t.Run("single", func(t *testing.T) {
		t.Parallel()

		verr := ValidateStruct(&models.ReviewSubmission{FacilityID: "f1", Rating: 7})
		apiErr := verr.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("code = %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "rating" {
			t.Errorf("details field = %v", apiErr.Details["field"])
		}
	})

	t.Run("multiple", func(t *testing.T) {
		t.Parallel()

		verr := ValidateStruct(&models.ReviewSubmission{Rating: 7})
		apiErr := verr.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]any)
		if !ok || len(fields) != 2 {
			t.Fatalf("expected 2 field entries, got %v", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, "; ") {
			t.Errorf("expected joined message, got %q", apiErr.Message)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("message = %q", apiErr.Message)
		}
	})
}

func TestValidateStruct_NonStruct(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct("not a struct")
	if verr == nil {
		t.Fatal("expected error for non-struct input")
	}
	if verr.Errors()[0].Field() != "unknown" {
		t.Errorf("field = %q, want unknown", verr.Errors()[0].Field())
	}
}
