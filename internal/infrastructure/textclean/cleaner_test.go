package textclean

import "testing"

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Oil prices rise", want: "Oil prices rise"},
		{name: "tags", in: "<p>Oil <b>prices</b> rise</p>", want: "Oil prices rise"},
		{name: "entities", in: "AT&amp;T &lt;beats&gt;", want: "AT&T <beats>"},
		{name: "unclosed", in: "<div>Gold <i>rallies", want: "Gold rallies"},
		{name: "blocks", in: "<p>Gold</p><p>rallies</p>", want: "Gold rallies"},
		{name: "script", in: "<script>var x = 1;</script>Oil", want: "Oil"},
		{name: "empty", in: "", want: ""},
	}
	cleaner := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleaner.StripMarkup(tc.in); got != tc.want {
				t.Fatalf("StripMarkup(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
