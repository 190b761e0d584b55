package utils

import "testing"

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"password1", true},
		{"12345678a", true},
		{"short1", false},
		{"onlyletters", false},
		{"123456789", false},
		{"", false},
	}

	for _, c := range cases {
		if got := ValidatePassword(c.password); got != c.valid {
			t.Errorf("ValidatePassword(%q) = %v, want %v", c.password, got, c.valid)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		username string
		valid    bool
	}{
		{"user_01", true},
		{"abc", true},
		{"ab", false},
		{"this_username_is_way_too_long", false},
		{"bad name", false},
		{"bad-name", false},
		{"", false},
	}

	for _, c := range cases {
		if got := ValidateUsername(c.username); got != c.valid {
			t.Errorf("ValidateUsername(%q) = %v, want %v", c.username, got, c.valid)
		}
	}
}
