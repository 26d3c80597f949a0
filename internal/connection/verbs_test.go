package connection

import (
	"encoding/json"
	"net/url"
	"testing"
)

func TestEncodeQuery(t *testing.T) {
	status := "paid"

	tests := []struct {
		name    string
		payload any
		want    string
		wantErr bool
	}{
		{"nil", nil, "", false},
		{"map", map[string]any{"b": 2, "a": "x y", "skip": nil}, "a=x+y&b=2", false},
		{"struct", struct {
			PageNum int     `json:"pageNum"`
			Status  *string `json:"status,omitempty"`
		}{PageNum: 1, Status: &status}, "pageNum=1&status=paid", false},
		{"array repeats key", map[string]any{"id": []int{1, 2}}, "id=1&id=2", false},
		{"bool", map[string]bool{"read": true}, "read=true", false},
		{"nested object", map[string]any{"f": map[string]int{"x": 1}}, "f=%7B%22x%22%3A1%7D", false},
		{"url values", url.Values{"limit": {"5"}}, "limit=5", false},
		{"large number", map[string]any{"id": int64(9007199254740993)}, "id=9007199254740993", false},
		{"not an object", []int{1}, "", true},
		{"scalar", 5, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeQuery(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EncodeQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("EncodeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeData(t *testing.T) {
	n, err := DecodeData[int](json.RawMessage("null"), "/x")
	if err != nil || n != 0 {
		t.Errorf("null data = %d, %v", n, err)
	}

	n, err = DecodeData[int](nil, "/x")
	if err != nil || n != 0 {
		t.Errorf("absent data = %d, %v", n, err)
	}

	n, err = DecodeData[int](json.RawMessage("42"), "/x")
	if err != nil || n != 42 {
		t.Errorf("data = %d, %v", n, err)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:8080/api", "http://localhost:8080/api"},
		{"https://api.example.com/", "https://api.example.com"},
		{"localhost:8080", "http://localhost:8080"},
		{"  ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
