package service

import (
	"testing"

	"invoicer/internal/models"
)

func TestRequireItems(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		count   int
		wantErr bool
	}{
		{"draft may be empty", models.InvoiceStateDraft, 0, false},
		{"draft with items", models.InvoiceStateDraft, 2, false},
		{"open needs items", models.InvoiceStateOpen, 0, true},
		{"open with items", models.InvoiceStateOpen, 1, false},
		{"paid partial needs items", models.InvoiceStatePaidPartial, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := requireItems(tt.state, tt.count)
			if (err != nil) != tt.wantErr {
				t.Fatalf("requireItems(%s, %d) = %v, wantErr = %v", tt.state, tt.count, err, tt.wantErr)
			}
		})
	}
}
