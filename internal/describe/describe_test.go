package describe

import "testing"

func TestParseResponse_JSON(t *testing.T) {
	r := parseResponse(`{"description": "login form with a blue submit button", "confidence": 4}`)
	if r.Text != "login form with a blue submit button" {
		t.Errorf("Text = %q", r.Text)
	}
	if r.Confidence != 4 {
		t.Errorf("Confidence = %d, want 4", r.Confidence)
	}
}

func TestParseResponse_FencedJSON(t *testing.T) {
	r := parseResponse("```json\n{\"description\": \"terminal window\", \"confidence\": 5}\n```")
	if r.Text != "terminal window" || r.Confidence != 5 {
		t.Errorf("got %+v", r)
	}
}

func TestParseResponse_PlainTextFallback(t *testing.T) {
	r := parseResponse("A screenshot of a settings page.")
	if r.Text != "A screenshot of a settings page." {
		t.Errorf("Text = %q", r.Text)
	}
	if r.Confidence != 3 {
		t.Errorf("fallback Confidence = %d, want 3", r.Confidence)
	}
}

func TestParseResponse_ClampsConfidence(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{`{"description": "x", "confidence": 0}`, 1},
		{`{"description": "x", "confidence": 9}`, 5},
	}
	for _, c := range cases {
		if r := parseResponse(c.in); r.Confidence != c.want {
			t.Errorf("parseResponse(%s).Confidence = %d, want %d", c.in, r.Confidence, c.want)
		}
	}
}

func TestMimeType(t *testing.T) {
	cases := map[string]string{
		"shot.png":  "image/png",
		"shot.JPG":  "image/jpeg",
		"shot.jpeg": "image/jpeg",
		"shot.webp": "image/webp",
		"shot":      "image/png",
	}
	for path, want := range cases {
		if got := mimeType(path); got != want {
			t.Errorf("mimeType(%q) = %q, want %q", path, got, want)
		}
	}
}
