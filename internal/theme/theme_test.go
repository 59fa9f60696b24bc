package theme

import "testing"

func TestParseSettings(t *testing.T) {
	t.Parallel()

	s, err := ParseSettings([]byte("name: night\naccent: \"#ff00ff\"\nshow_icons: false\n"))
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.Name != "night" || s.Accent != "#ff00ff" || s.ShowIcons {
		t.Errorf("parsed = %+v", s)
	}
}

func TestParseSettings_MalformedRejected(t *testing.T) {
	t.Parallel()

	if _, err := ParseSettings([]byte("name: [unclosed")); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestEncodeParse_RoundTrip(t *testing.T) {
	t.Parallel()

	in := Settings{Name: "day", Accent: "#00ff00", ShowIcons: true}
	data, err := EncodeSettings(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ParseSettings(data)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestForSettings_AccentOverride(t *testing.T) {
	t.Parallel()

	p := ForSettings(Settings{Accent: "#123456"})
	if string(p.Accent) != "#123456" {
		t.Errorf("accent = %s, want override", p.Accent)
	}
	if p.Bg != Default.Bg {
		t.Error("override changed unrelated colors")
	}
}
