package detector

import "github.com/ccollicutt/chatlog/pkg/parser"

// Profile describes how one exporter locale writes header lines.
type Profile struct {
	Name          string                // Human-readable name
	HeaderPattern string                // Anchored header regex for config output
	Layout        string                // Go time layout after meridiem substitution
	Meridiem      []parser.MeridiemRule // Meridiem substitutions applied before parsing
	Examples      []string              // Example header lines

	// Family groups profiles that share a header shape and differ only in
	// day/month order. DayFirst tells the two apart.
	Family   string
	DayFirst bool
}

const twentyFourHour = `^\d+/\d+/\d+ \d+:\d+\s* -`

// DefaultProfiles returns the built-in exporter profiles to detect.
// Earlier profiles win ties.
func DefaultProfiles() []*Profile {
	dotted := parser.DefaultOptions().Meridiem

	return []*Profile{
		// Spanish-language exports: "1/2/2023 10:05 a.m. - Ana: hola"
		{
			Name:          "Dotted meridiem (d/m/yyyy h:mm a.m.)",
			HeaderPattern: parser.DefaultHeaderPattern,
			Layout:        parser.DefaultTimestampLayout,
			Meridiem:      dotted,
			Examples:      []string{"25/11/2023 10:05 p.m. - Ana: hola"},
			Family:        "dotted-meridiem",
			DayFirst:      true,
		},
		{
			Name:          "Dotted meridiem (m/d/yyyy h:mm a.m.)",
			HeaderPattern: parser.DefaultHeaderPattern,
			Layout:        "1/2/2006 3:04 PM",
			Meridiem:      dotted,
			Examples:      []string{"11/25/2023 10:05 p.m. - Ana: hola"},
			Family:        "dotted-meridiem",
		},
		// English exports from US phones: "1/15/23, 10:05 AM - Ann: hi"
		{
			Name:          "AM/PM (m/d/yy, h:mm AM)",
			HeaderPattern: `^\d+/\d+/\d+, \d+:\d+\s[AP]M\s* -`,
			Layout:        "1/2/06, 3:04 PM",
			Examples:      []string{"11/25/23, 10:05 PM - Ann: hi"},
			Family:        "ampm",
		},
		{
			Name:          "AM/PM (d/m/yy, h:mm AM)",
			HeaderPattern: `^\d+/\d+/\d+, \d+:\d+\s[AP]M\s* -`,
			Layout:        "2/1/06, 3:04 PM",
			Examples:      []string{"25/11/23, 10:05 PM - Ann: hi"},
			Family:        "ampm",
			DayFirst:      true,
		},
		// English exports from UK and Indian phones: "15/01/2023, 10:05 am - Ann: hi"
		{
			Name:          "Lowercase am/pm (d/m/yyyy, h:mm am)",
			HeaderPattern: `^\d+/\d+/\d+, \d+:\d+\s[ap]m\s* -`,
			Layout:        "2/1/2006, 3:04 pm",
			Examples:      []string{"25/11/2023, 10:05 pm - Ann: hi"},
			Family:        "lower-ampm",
			DayFirst:      true,
		},
		// Most European locales: "25/11/23 22:05 - Ana: hola"
		{
			Name:          "24-hour (d/m/yy HH:mm)",
			HeaderPattern: twentyFourHour,
			Layout:        "2/1/06 15:04",
			Examples:      []string{"25/11/23 22:05 - Ana: hola"},
			Family:        "24h-short",
			DayFirst:      true,
		},
		{
			Name:          "24-hour (d/m/yyyy HH:mm)",
			HeaderPattern: twentyFourHour,
			Layout:        "2/1/2006 15:04",
			Examples:      []string{"25/11/2023 22:05 - Ana: hola"},
			Family:        "24h-long",
			DayFirst:      true,
		},
		{
			Name:          "24-hour comma (d/m/yyyy, HH:mm)",
			HeaderPattern: `^\d+/\d+/\d+, \d+:\d+\s* -`,
			Layout:        "2/1/2006, 15:04",
			Examples:      []string{"25/11/2023, 22:05 - Ana: hola"},
			Family:        "24h-comma",
			DayFirst:      true,
		},
		// German exports: "25.11.23, 22:05 - Anna: hallo"
		{
			Name:          "24-hour dotted date (d.m.yy, HH:mm)",
			HeaderPattern: `^\d+\.\d+\.\d+, \d+:\d+\s* -`,
			Layout:        "2.1.06, 15:04",
			Examples:      []string{"25.11.23, 22:05 - Anna: hallo"},
			Family:        "24h-dotted",
			DayFirst:      true,
		},
	}
}
