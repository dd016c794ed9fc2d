package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	t.Run("BlankInput", func(t *testing.T) {
		assert.Equal(t, "", Text(""))
		assert.Equal(t, "", Text("   \t\n "))
	})

	t.Run("CaseFoldAndWhitespace", func(t *testing.T) {
		assert.Equal(t, "hex bolt", Text("  HEX   Bolt "))
	})

	t.Run("AbbreviationExpansion", func(t *testing.T) {
		assert.Equal(t, "hex head cap screw", Text("HX HD CAP SCR"))
		assert.Equal(t, "stainless steel washer", Text("SS WASHER"))
		assert.Equal(t, "nut and bolt", Text("nut & bolt"))
		assert.Equal(t, "with nylon insert", Text("W/NYLON INSERT"))
		assert.Equal(t, "with", Text("w/"))
	})

	t.Run("TrailingDotShorthand", func(t *testing.T) {
		assert.Equal(t, "grade 8", Text("GR. 8"))
	})

	t.Run("PartNumberCharsKept", func(t *testing.T) {
		assert.Equal(t, "5/16 18x2 1/2", Text("5/16-18X2-1/2"))
		assert.Equal(t, "1.5 in pipe", Text("1.5\" in pipe"))
	})

	t.Run("DiacriticsStripped", func(t *testing.T) {
		assert.Equal(t, "creme anglaise", Text("Crème Anglaise"))
	})

	t.Run("InvoiceLineItem", func(t *testing.T) {
		got := Text("GR. 8 HX HD CAP SCR 5/16-18X2-1/2")
		assert.Equal(t, "grade 8 hex head cap screw 5/16 18x2 1/2", got)
	})

	t.Run("Idempotent", func(t *testing.T) {
		inputs := []string{
			"GR. 8 HX HD CAP SCR 5/16-18X2-1/2",
			"SS FLAT WASHER W/TEFLON",
			"Crème & Frâiche",
			"screw/bolt combo",
			"",
			"W236 1-1/2 X 1/2 X 1/4 A60R",
			"!!! ??? ...",
		}
		for _, in := range inputs {
			once := Text(in)
			assert.Equal(t, once, Text(once), "input %q", in)
		}
	})

	t.Run("GarbageOnlyPunctuation", func(t *testing.T) {
		assert.Equal(t, "", Text("!!! @@@ ###"))
	})
}
