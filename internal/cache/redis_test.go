package cache

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"verify", "CERT-1"}, "certchain:verify:CERT-1"},
		{[]string{"verify", "a:b"}, "certchain:verify:a:b"},
		{[]string{"nonce"}, "certchain:nonce"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Key(tt.parts...); got != tt.want {
				t.Errorf("Key() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClose_Uninitialized(t *testing.T) {
	Client = nil
	if err := Close(); err != nil {
		t.Errorf("Close() on nil client returned %v", err)
	}
}
