package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{" 100 ", "100", true},
		{"0", "0", true},
		{"", "", false},
		{"-5", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if got.String() != tc.want {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}
