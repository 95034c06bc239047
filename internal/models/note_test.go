package models

import "testing"

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		title string
		ok    bool
	}{
		{"Groceries", true},
		{"  padded  ", true},
		{"Заметка", true},
		{"", false},
		{" \t\n", false},
	}
	for _, tt := range tests {
		err := Draft{Title: tt.title}.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("Validate(%q) = %v, want ok=%v", tt.title, err, tt.ok)
		}
	}
}

func TestHasImage(t *testing.T) {
	if (Note{}).HasImage() {
		t.Error("nil image reported as present")
	}
	if !(Note{Image: []byte{}}).HasImage() {
		t.Error("empty blob reported as absent")
	}
}
