package syncmark

import "testing"

func TestAnnotate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"see [5:06] for the proof",
			`see <span class="timestamp" data-time="306">[5:06]</span> for the proof`,
		},
		{
			"the demo at [01:02:03] fails",
			`the demo at <span class="timestamp" data-time="3723">[01:02:03]</span> fails`,
		},
		{
			"[0:00] intro and [12:34] outro",
			`<span class="timestamp" data-time="0">[0:00]</span> intro and <span class="timestamp" data-time="754">[12:34]</span> outro`,
		},
		{"no timestamps here", "no timestamps here"},
		{"", ""},
		{"broken [1:2] stays", "broken [1:2] stays"},
	}

	for _, tc := range tests {
		if got := Annotate(tc.in); got != tc.want {
			t.Errorf("Annotate(%q)\n got %q\nwant %q", tc.in, got, tc.want)
		}
	}
}
