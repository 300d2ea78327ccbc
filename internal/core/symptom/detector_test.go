package symptom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := NewDetector()

	cases := map[string]string{
		"white powder on leaves":          "powdery mildew",
		"I see ORANGE SPOTS":              "rust",
		"leaves turning yellow":           "yellowing",
		"black spots everywhere":          "spots",
		"my basil looks sick":             "leaf disease",
		"mildew and rust on the same leaf": "powdery mildew",
	}
	for in, want := range cases {
		got, ok := d.Detect(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got.Name, in)
		assert.NotEmpty(t, got.Info)
	}
}

func TestDetectFirstCategoryWins(t *testing.T) {
	// "orange spots" 同時命中 rust 與 spots，取表格中較前的 rust
	got, ok := NewDetector().Detect("orange spots")
	assert.True(t, ok)
	assert.Equal(t, "rust", got.Name)
}

func TestDetectNoKeyword(t *testing.T) {
	_, ok := NewDetector().Detect("what should I plant next spring")
	assert.False(t, ok)

	_, ok = NewDetector().Detect("")
	assert.False(t, ok)
}

func TestCustomTableLowercasesKeywords(t *testing.T) {
	d := NewDetectorWithTable([]Entry{{Name: "root rot", Keywords: []string{"Brown Roots"}}})
	got, ok := d.Detect("brown roots in the reservoir")
	assert.True(t, ok)
	assert.Equal(t, "root rot", got.Name)
	assert.Equal(t, []string{"root rot"}, d.Categories())
}
