package errors

import "testing"

func TestValidateCell(t *testing.T) {
	tests := []struct {
		name    string
		x, y    int
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"far corner", 4, 2, false},
		{"negative x", -1, 0, true},
		{"negative y", 0, -1, true},
		{"x at width", 5, 0, true},
		{"y at height", 0, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCell("goal", tt.x, tt.y, 5, 3)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCell(%d, %d) error = %v, wantErr %v", tt.x, tt.y, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidRequest) {
				t.Errorf("ValidateCell returned wrong error code: %v", err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "warehouse", false},
		{"with dash and dot", "floor-2.v1", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"path traversal", "..", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"empty", "", true},
		{"garbage", "not-a-uuid", true},
		{"traversal", "../../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMapPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"json", "mapa.json", false},
		{"toml nested", "maps/floor.toml", false},
		{"absolute", "/srv/maps/floor.JSON", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)) + ".json", true},
		{"null byte", "foo\x00bar.json", true},
		{"newline", "foo\nbar.json", true},
		{"wrong extension", "map.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMapPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMapPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidMap) {
				t.Errorf("ValidateMapPath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}
