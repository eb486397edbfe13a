package evolution

import "testing"

func TestNormalizeJID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"51999888777@s.whatsapp.net", "51999888777"},
		{"123456789012345@lid", "123456789012345@lid"},
		{"+51 999 888 777", "51999888777"},
		{"51999888777", "51999888777"},
	}
	for _, tc := range cases {
		if got := NormalizeJID(tc.in); got != tc.want {
			t.Errorf("NormalizeJID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "", InstanceID: "x", APIKey: "k"}); err == nil {
		t.Fatal("want error for missing url")
	}
	if _, err := NewClient(Config{URL: "https://api.example.com", InstanceID: "", APIKey: "k"}); err == nil {
		t.Fatal("want error for missing instance id")
	}
	if _, err := NewClient(Config{URL: "https://api.example.com", InstanceID: "x", APIKey: "k"}); err != nil {
		t.Fatalf("NewClient: %v", err)
	}
}
