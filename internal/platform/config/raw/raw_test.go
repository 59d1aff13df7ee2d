package raw

import "testing"

func TestConfGet(t *testing.T) {
	t.Setenv("APP_NAME", " loopguard ")
	t.Setenv("LOG_FORMAT", " json ")

	root := New()
	lg := root.Prefix("LOG_")

	tests := []struct {
		name string
		conf Conf
		key  string
		def  string
		want string
	}{
		{name: "root", conf: root, key: "APP_NAME", def: "x", want: "loopguard"},
		{name: "prefixed hit", conf: lg, key: "FORMAT", def: "x", want: "json"},
		{name: "missing returns default", conf: lg, key: "MISSING", def: "defv", want: "defv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.Get(tt.key, tt.def); got != tt.want {
				t.Fatalf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfGetBool(t *testing.T) {
	c := New().Prefix("RB_")
	t.Setenv("RB_T1", "true")
	t.Setenv("RB_T2", "1")
	t.Setenv("RB_T3", "YES")
	t.Setenv("RB_F1", "false")
	t.Setenv("RB_F2", "no")

	for _, k := range []string{"T1", "T2", "T3"} {
		if !c.GetBool(k, false) {
			t.Fatalf("GetBool(%s) should be true", k)
		}
	}
	for _, k := range []string{"F1", "F2"} {
		if c.GetBool(k, true) {
			t.Fatalf("GetBool(%s) should be false", k)
		}
	}
	if !c.GetBool("MISSING", true) {
		t.Fatalf("GetBool default not used")
	}
}

func TestConfGetInt(t *testing.T) {
	c := New().Prefix("RI_")
	t.Setenv("RI_OK", " 12 ")
	t.Setenv("RI_NEG", "-3")
	t.Setenv("RI_BAD", "1x")

	cases := map[string]int{"OK": 12, "NEG": 7, "BAD": 7, "MISSING": 7}
	for k, want := range cases {
		if got := c.GetInt(k, 7); got != want {
			t.Fatalf("GetInt(%s) = %d, want %d", k, got, want)
		}
	}
}
