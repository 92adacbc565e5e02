package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/srtctl/internal/model"
)

func TestParseCorrections(t *testing.T) {
	got := ParseCorrections("teh -> the\n\n  recieve ->  receive  \nuh\nfoo ->\n a -> b -> c\n")
	assert.Equal(t, model.Dictionary{
		"teh":     "the",
		"recieve": "receive",
		"uh":      "",
		"foo":     "",
		"a":       "b -> c",
	}, got)
}

func TestParseCorrections_CRLF(t *testing.T) {
	got := ParseCorrections("teh -> the\r\nuh\r\n")
	assert.Equal(t, model.Dictionary{"teh": "the", "uh": ""}, got)
}

func TestFormatCorrections(t *testing.T) {
	got := FormatCorrections(model.Dictionary{"uh": "", "teh": "the", "": "x"})
	assert.Equal(t, "teh -> the\nuh\n", got)
}

func TestCorrectionsRoundTrip(t *testing.T) {
	dicts := []model.Dictionary{
		{},
		{"teh": "the"},
		{"teh": "the", "uh": "", "recieve": "receive", "gonna": "going to", "Straße": "Strasse"},
	}
	for _, d := range dicts {
		for term := range d {
			require.NoError(t, CheckCorrectionTerm(term))
		}
		assert.Equal(t, d, ParseCorrections(FormatCorrections(d)))
	}

	// terms carrying the separator would split differently on the way back
	for _, term := range []string{"a -> b", "dangling ->"} {
		assert.Error(t, CheckCorrectionTerm(term), term)
		d := model.Dictionary{term: "c"}
		assert.NotEqual(t, d, ParseCorrections(FormatCorrections(d)))
	}
	assert.NoError(t, CheckCorrectionTerm("a ->b"))
}

func TestCorrections_BareLineIdempotent(t *testing.T) {
	once := ParseCorrections("uh\n")
	assert.Equal(t, model.Dictionary{"uh": ""}, once)
	assert.Equal(t, "uh\n", FormatCorrections(once))
	assert.Equal(t, once, ParseCorrections(FormatCorrections(once)))
}

func TestProtections(t *testing.T) {
	got := ParseProtections("NASA\n\n  Tehran \nNASA\n")
	assert.Equal(t, model.Dictionary{"NASA": "", "Tehran": ""}, got)
	assert.Equal(t, "NASA\nTehran\n", FormatProtections(got))
	assert.Equal(t, got, ParseProtections(FormatProtections(got)))
}

func TestParseFormatDispatch(t *testing.T) {
	assert.Equal(t, model.Dictionary{"a -> b": ""}, Parse(model.KindProtection, "a -> b"))
	assert.Equal(t, model.Dictionary{"a": "b"}, Parse(model.KindCorrection, "a -> b"))
	assert.Equal(t, "a\n", Format(model.KindProtection, model.Dictionary{"a": "ignored"}))
}
