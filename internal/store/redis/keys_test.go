package redis

import "testing"

func TestExtractSubdomain(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
		wantErr  bool
	}{
		{name: "page key", key: PublicKey("acme"), expected: "acme"},
		{name: "hyphenated", key: "pulse:public:acme-2", expected: "acme-2"},
		{name: "prefix only", key: KeyPrefixPublic, wantErr: true},
		{name: "snapshot key", key: PublishedKey("acme"), wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractSubdomain(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractSubdomain() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ExtractSubdomain() = %q, want %q", got, tt.expected)
			}
		})
	}
}
