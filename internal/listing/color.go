package listing

import (
	"strings"

	"golang.org/x/text/cases"
)

var colorHex = map[string]string{
	"black": "#000000", "white": "#FFFFFF", "grey": "#808080", "gray": "#808080",
	"silver": "#C0C0C0", "red": "#FF0000", "maroon": "#800000", "orange": "#FFA500",
	"yellow": "#FFFF00", "olive": "#808000", "lime": "#00FF00", "green": "#008000",
	"aqua": "#00FFFF", "cyan": "#00FFFF", "teal": "#008080", "blue": "#0000FF",
	"navy": "#000080", "fuchsia": "#FF00FF", "magenta": "#FF00FF", "purple": "#800080",
	"pink": "#FFC0CB", "brown": "#A52A2A", "beige": "#F5F5DC", "khaki": "#F0E68C",
	"gold": "#FFD700", "cream": "#FFFDD0", "burgundy": "#800020", "mustard": "#FFDB58",
	"turquoise": "#40E0D0", "indigo": "#4B0082", "violet": "#EE82EE", "plum": "#DDA0DD",
	"orchid": "#DA70D6", "salmon": "#FA8072", "coral": "#FF7F50", "chocolate": "#D2691E",
	"tan": "#D2B48C", "ivory": "#FFFFF0", "honeydew": "#F0FFF0", "azure": "#F0FFFF",
	"lavender": "#E6E6FA", "rose": "#FFE4E1", "lilac": "#C8A2C8", "mint": "#98FF98",
	"peach": "#FFDAB9", "sky blue": "#87CEEB", "royal blue": "#4169E1", "cobalt": "#0047AB",
	"denim": "#1560BD", "emerald": "#50C878", "mint green": "#98FF98", "lime green": "#32CD32",
	"forest green": "#228B22", "olive green": "#6B8E23", "mustard yellow": "#FFDB58",
	"lemon": "#FFFACD", "coral pink": "#F88379", "hot pink": "#FF69B4", "baby pink": "#F4C2C2",
	"ruby": "#E0115F", "scarlet": "#FF2400", "wine": "#722F37", "terracotta": "#E2725B",
	"bronze": "#CD7F32", "light blue": "#ADD8E6", "dark green": "#006400",
	"light grey": "#D3D3D3", "dark blue": "#00008B", "light green": "#90EE90",
	"dark grey": "#A9A9A9", "multicolour": "#CCCCCC", "check": "#A9A9A9",
	"floral": "#A9A9A9", "animal print": "#A9A9A9", "striped": "#A9A9A9",
	"camouflage": "#A9A9A9", "geometric": "#A9A9A9", "abstract": "#A9A9A9",
}

var folder = cases.Fold()

// ColorHex maps a color name to its hex code. Only the first color of a
// comma-separated list is considered. Unknown names return nil.
func ColorHex(name *string) *string {
	if name == nil {
		return nil
	}
	first, _, _ := strings.Cut(*name, ",")
	key := strings.Join(strings.Fields(folder.String(first)), " ")
	hex, ok := colorHex[key]
	if !ok {
		return nil
	}
	return &hex
}
