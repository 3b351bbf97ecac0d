package constants

// Colors is the fixed assignment palette. Order matches the provider color ids 1..11.
var Colors = []string{
	"#7986cb",
	"#33b679",
	"#8e24aa",
	"#e67c73",
	"#f6c026",
	"#f5511d",
	"#039be5",
	"#616161",
	"#3f51b5",
	"#0b8043",
	"#d60000",
}

// DefaultColorID is used for any hex value outside the palette.
const DefaultColorID = "1"

var colorIDs = map[string]string{
	"#7986cb": "1",  // lavender
	"#33b679": "2",  // sage
	"#8e24aa": "3",  // grape
	"#e67c73": "4",  // flamingo
	"#f6c026": "5",  // banana
	"#f5511d": "6",  // tangerine
	"#039be5": "7",  // peacock
	"#616161": "8",  // graphite
	"#3f51b5": "9",  // blueberry
	"#0b8043": "10", // basil
	"#d60000": "11", // tomato
}

// ColorIDForHex maps a palette color to the calendar provider's colorId.
func ColorIDForHex(hex string) string {
	if id, ok := colorIDs[hex]; ok {
		return id
	}
	return DefaultColorID
}

// IsPaletteColor reports whether hex is one of the palette entries.
func IsPaletteColor(hex string) bool {
	_, ok := colorIDs[hex]
	return ok
}
