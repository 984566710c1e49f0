package service

import "testing"

func TestWSURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"", "/ws"},
		{"wss://collab.example.com", "wss://collab.example.com/ws"},
		{"wss://collab.example.com/", "wss://collab.example.com/ws"},
	}
	for _, tc := range cases {
		c := &WSConfig{BaseURL: tc.base}
		if got := c.WSURL(); got != tc.want {
			t.Errorf("WSURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
	var nilCfg *WSConfig
	if got := nilCfg.WSURL(); got != "/ws" {
		t.Errorf("nil WSURL = %q, want /ws", got)
	}
}
