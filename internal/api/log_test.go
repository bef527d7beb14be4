package api

import "testing"

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "FullLine",
			in:   `time=2026-03-02T21:14:05.518+01:00 level=INFO msg="Settings saved" component=settings key=storage path="/very/long/path/to/objmap.db"`,
			want: "21:14:05 Settings saved (component=settings, key=storage)",
		},
		{
			name: "NoAttributes",
			in:   `time=2026-03-02T21:14:05.518+01:00 level=WARN msg=Autosave`,
			want: "21:14:05 Autosave",
		},
		{
			name: "Unparseable",
			in:   "plain text",
			want: "plain text",
		},
		{
			name: "Empty",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.in); got != tt.want {
				t.Errorf("formatLogLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
