package pdfmeta

import "testing"

func TestExtractBytesRejectsNonPDF(t *testing.T) {
	_, err := ExtractBytes([]byte("<html>not a pdf</html>"))
	if err == nil {
		t.Fatal("expected a parse error for non-PDF input")
	}
}

func TestFirstTitleLine(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "skips header boilerplate",
			text: "Journal of Machine Learning Research 21 (2020)\n" +
				"arXiv:1706.03762v5 [cs.CL]\n" +
				"Attention Is All You Need for Sequence Modeling\n",
			want: "Attention Is All You Need for Sequence Modeling",
		},
		{
			name: "skips short fragments",
			text: "3\nNeurIPS\nExploring the Limits of Transfer Learning\n",
			want: "Exploring the Limits of Transfer Learning",
		},
		{
			name: "nothing substantial",
			text: "1\n2\n3\n",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstTitleLine(tt.text); got != tt.want {
				t.Errorf("firstTitleLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
