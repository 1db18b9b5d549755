package ansi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor(t *testing.T) {
	assert.Equal(t, "\x1b[1A", Up(1))
	assert.Equal(t, "\x1b[3B", Down(3))
	assert.Equal(t, "\x1b[2C", Right(2))
	assert.Equal(t, "\x1b[4D", Left(4))
}

func TestCode_Wrap(t *testing.T) {
	assert.Equal(t, "\x1b[31mHello\x1b[0m", Red.Fore().Wrap("Hello"))
	assert.Equal(t, "\x1b[1mHello\x1b[0m", Bold.Wrap("Hello"))
}

func TestColor_Codes(t *testing.T) {
	tests := []struct {
		color Color
		fore  Code
		back  Code
	}{
		{Black, "\x1b[30m", "\x1b[40m"},
		{White, "\x1b[37m", "\x1b[47m"},
		{BrightBlack, "\x1b[90m", "\x1b[100m"},
		{BrightGreen, "\x1b[92m", "\x1b[102m"},
		{BrightWhite, "\x1b[97m", "\x1b[107m"},
		{NoColor, "", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.fore, tt.color.Fore())
		assert.Equal(t, tt.back, tt.color.Back())
	}
}

func TestColor_Paint(t *testing.T) {
	assert.Equal(t, "\x1b[92m✓ PASS\x1b[0m", BrightGreen.Paint("✓ PASS"))
	assert.Equal(t, "\x1b[31mFAILED\x1b[0m", Red.Paint("FAILED"))
	assert.Equal(t, "plain", NoColor.Paint("plain"))
}

func TestColor_PaintKeepsTabs(t *testing.T) {
	assert.Equal(t, "\x1b[90ma\tb\x1b[0m", BrightBlack.Paint("a\tb"))
}

func TestPainter(t *testing.T) {
	assert.Equal(t, "text", Painter{}.Paint("text", Red))
	assert.Equal(t, Red.Fore().Wrap("text"), Painter{Enabled: true}.Paint("text", Red))
}

func TestVisibleLen(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"plain", "Hello World!", 12},
		{"colored word", "Hello \x1b[31mWorld\x1b[0m!", 12},
		{"nested styles", Bold.Wrap(Red.Fore().Wrap("abc")), 3},
		{"box drawing", "═══", 3},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VisibleLen(tt.input))
		})
	}
}

func TestVisibleLen_StylingIsInvisible(t *testing.T) {
	plain := "SUITE PASSED: Top.Suite"
	for c := Black; c <= BrightWhite; c++ {
		assert.Equal(t, VisibleLen(plain), VisibleLen(c.Paint(plain)))
		assert.Equal(t, VisibleLen(plain), VisibleLen(Underline.Wrap(c.Fore().Wrap(plain))))
	}
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "Hello World!", Strip("Hello \x1b[31mWorld\x1b[0m!"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ellipsis", "hello world", 8, "hello..."},
		{"ellipsis only", "hello", 3, "..."},
		{"hard cut", "hello", 2, "he"},
		{"zero", "hello", 0, ""},
		{"negative", "hello", -4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.width))
		})
	}
}

func TestTruncate_Idempotent(t *testing.T) {
	line := strings.Repeat("abcdefghij", 10)
	for width := 0; width < 20; width++ {
		once := Truncate(line, width)
		assert.Equal(t, once, Truncate(once, width), "width %d", width)
	}
}
