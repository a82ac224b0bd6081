package timeofday

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Minutes
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9:00", 0, true},
		{"0900", 0, true},
		{"", 0, true},
	}

	for _, c := range cases {
		got, err := Parse(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := Minutes(510).String(); got != "08:30" {
		t.Errorf("String() = %q, want 08:30", got)
	}
	if got := Minutes(0).String(); got != "00:00" {
		t.Errorf("String() = %q, want 00:00", got)
	}
}

func TestAddWrapsAtMidnight(t *testing.T) {
	start := MustParse("23:45")
	end := start.Add(30)

	if end.String() != "00:15" {
		t.Fatalf("23:45 + 30min = %s, want 00:15", end)
	}
	// The wrapped end lands before the start, which same-day booking rejects.
	if end > start {
		t.Fatal("expected wrapped end to compare before start")
	}
}

func TestOverlap(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"disjoint", "09:00", "09:30", "09:30", "10:00", false},
		{"partial", "09:00", "09:30", "09:15", "09:45", true},
		{"contained", "09:00", "10:00", "09:15", "09:30", true},
		{"identical", "09:00", "09:30", "09:00", "09:30", true},
		{"touching-before", "08:00", "09:00", "09:00", "09:30", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Overlap(MustParse(c.s1), MustParse(c.e1), MustParse(c.s2), MustParse(c.e2))
			if got != c.want {
				t.Errorf("Overlap(%s-%s, %s-%s) = %v, want %v", c.s1, c.e1, c.s2, c.e2, got, c.want)
			}
		})
	}
}
