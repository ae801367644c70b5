package descriptor

import (
	"errors"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name      string
		desc      Descriptor
		wantField string
	}{
		{
			name: "valid minimal descriptor",
			desc: Descriptor{
				Config:       "/config/app.conf",
				Type:         "ini",
				Provider:     "env",
				AssignmentOp: "=",
				Assign:       map[string]string{"pwd": "ENV_PASSWORD"},
			},
		},
		{
			name:      "missing config",
			desc:      Descriptor{Type: "ini", Provider: "env", AssignmentOp: "="},
			wantField: "config",
		},
		{
			name: "relative config path",
			desc: Descriptor{
				Config:       "config/app.conf",
				AssignmentOp: "=",
			},
			wantField: "config",
		},
		{
			name: "assign with templatize disabled",
			desc: Descriptor{
				Config:       "/config/app.conf",
				AssignmentOp: "=",
				Templatize:   boolPtr(false),
				Assign:       map[string]string{"pwd": "ENV_PASSWORD"},
			},
			wantField: "assign",
		},
		{
			name: "empty provider key",
			desc: Descriptor{
				Config:       "/config/app.conf",
				AssignmentOp: "=",
				Assign:       map[string]string{"pwd": ""},
			},
			wantField: "assign",
		},
		{
			name: "unsupported assignment operator",
			desc: Descriptor{
				Config:       "/config/app.conf",
				AssignmentOp: "==",
			},
			wantField: "assignment_op",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if valErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", valErr.Field, tt.wantField)
			}
		})
	}
}

func TestDescriptor_TemplatizeEnabled(t *testing.T) {
	if !(Descriptor{}).TemplatizeEnabled() {
		t.Error("templatize must default to true")
	}
	if (Descriptor{Templatize: boolPtr(false)}).TemplatizeEnabled() {
		t.Error("explicit false not honored")
	}
	if !(Descriptor{Templatize: boolPtr(true)}).TemplatizeEnabled() {
		t.Error("explicit true not honored")
	}
}

func TestDescriptor_applyDefaults(t *testing.T) {
	d := Descriptor{Config: "/config/app.conf"}
	d.applyDefaults()

	if d.Type != "ini" {
		t.Errorf("Type = %q, want ini", d.Type)
	}
	if d.Provider != "env" {
		t.Errorf("Provider = %q, want env", d.Provider)
	}
	if d.AssignmentOp != "=" {
		t.Errorf("AssignmentOp = %q, want =", d.AssignmentOp)
	}
}
