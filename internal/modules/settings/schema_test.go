package settings

import "testing"

func TestValidCategory(t *testing.T) {
	for _, category := range Categories {
		if !ValidCategory(category) {
			t.Errorf("ValidCategory(%q) = false", category)
		}
	}
	for _, bogus := range []string{"", "General", "misc", "settings"} {
		if ValidCategory(bogus) {
			t.Errorf("ValidCategory(%q) = true", bogus)
		}
	}
}

func TestKeyAllowed(t *testing.T) {
	tests := []struct {
		category string
		key      string
		want     bool
	}{
		{"general", "page_title", true},
		{"general", "twitter_card_type", false},
		{"social", "twitter_card_type", true},
		{"advanced", "backup_before_import", true},
		{"images", "fallback_image_url", true},
		{"images", "page_title", false},
		{"general", "arbitrary_injected_key", false},
		{"unknown", "page_title", false},
	}
	for _, tt := range tests {
		if got := KeyAllowed(tt.category, tt.key); got != tt.want {
			t.Errorf("KeyAllowed(%q, %q) = %v, want %v", tt.category, tt.key, got, tt.want)
		}
	}
}

func TestWhitelistsAreDisjoint(t *testing.T) {
	owner := map[string]string{}
	for _, category := range Categories {
		for _, key := range CategoryKeys[category] {
			if prev, dup := owner[key]; dup {
				t.Errorf("key %q appears in both %q and %q", key, prev, category)
			}
			owner[key] = category
		}
	}
}

func TestDefaultsAreWhitelisted(t *testing.T) {
	for key := range Defaults {
		found := false
		for _, category := range Categories {
			if KeyAllowed(category, key) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("default key %q belongs to no category", key)
		}
	}
}

func TestImageKeysAreWhitelisted(t *testing.T) {
	for key := range imageKeys {
		found := false
		for _, category := range Categories {
			if KeyAllowed(category, key) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("image key %q belongs to no category", key)
		}
	}
	if IsImageKey("page_title") {
		t.Error("page_title flagged as an image key")
	}
	if !IsImageKey("fallback_image_url") {
		t.Error("fallback_image_url not flagged as an image key")
	}
}
