package client

import "testing"

func TestFormatParams(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{name: "empty", names: nil, want: ""},
		{name: "single", names: []string{"JoAnn"}, want: "?name[]=JoAnn"},
		{name: "two", names: []string{"A", "B"}, want: "?name[]=A&name[]=B"},
		{name: "space", names: []string{"Jo Ann"}, want: "?name[]=Jo%20Ann"},
		{name: "reserved characters", names: []string{"a&b=c+d"}, want: "?name[]=a%26b%3Dc%2Bd"},
		{name: "brackets in value", names: []string{"x[]"}, want: "?name[]=x%5B%5D"},
		{name: "unreserved kept", names: []string{"a-b_c.d~e"}, want: "?name[]=a-b_c.d~e"},
		{name: "utf-8", names: []string{"Zoë"}, want: "?name[]=Zo%C3%AB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatParams(tt.names); got != tt.want {
				t.Errorf("FormatParams(%q) = %q, want %q", tt.names, got, tt.want)
			}
		})
	}
}
