package convert

import (
	"strings"
	"testing"
	"time"

	"dphtml/config"
)

func TestNewValues(t *testing.T) {
	now := time.Date(2023, 12, 24, 10, 0, 0, 0, time.UTC)

	v := newValues("lib/dickens/carol.txt", "id-1", "ISO-8859-1", now)
	if v.Name != "carol" {
		t.Errorf("Name = %q, want carol", v.Name)
	}
	if v.SourceFile != "lib/dickens/carol.txt" {
		t.Errorf("SourceFile = %q", v.SourceFile)
	}
	if v.Dir != "lib/dickens" {
		t.Errorf("Dir = %q, want lib/dickens", v.Dir)
	}
	if v.Date != "2023-12-24" {
		t.Errorf("Date = %q, want 2023-12-24", v.Date)
	}
	if v.ID != "id-1" || v.Charset != "ISO-8859-1" {
		t.Errorf("ID/Charset = %q/%q", v.ID, v.Charset)
	}

	if v := newValues("carol.txt", "", "UTF-8", now); v.Dir != "" {
		t.Errorf("Dir = %q, want empty for file without directory", v.Dir)
	}
}

func TestExpandTemplate(t *testing.T) {
	values := newValues("lib/carol.txt", "abc", "UTF-8", time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"simple text", "static", "static"},
		{"name", "{{ .Name }}", "carol"},
		{"context", "{{ .Context }}", string(config.TitleTemplateFieldName)},
		{"sprig functions", "{{ .Name | title }} ({{ .Date }})", "Carol (2023-12-24)"},
		{"default", `{{ .Dir | default "none" }}`, "lib"},
		{"several fields", "{{ .SourceFile }}:{{ .ID }}:{{ .Charset }}", "lib/carol.txt:abc:UTF-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(config.TitleTemplateFieldName, tt.template, values)
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTemplate_InvalidTemplate(t *testing.T) {
	_, err := expandTemplate(config.OutputNameTemplateFieldName, "{{ .Name", Values{})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), string(config.OutputNameTemplateFieldName)) {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestExpandTemplate_InvalidField(t *testing.T) {
	if _, err := expandTemplate(config.TitleTemplateFieldName, "{{ .Missing }}", Values{}); err == nil {
		t.Error("expected execution error for unknown field")
	}
}
