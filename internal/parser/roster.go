package parser

// RosterEntry is one round of the season calendar.
type RosterEntry struct {
	Name    string
	Round   int
	Country string
	Aliases []string
}

// roster is the 2025 calendar. Matching walks it in order and the first
// entry with a matching name or alias wins, so entries whose aliases are
// substrings of a later entry's title text come first.
var roster = []RosterEntry{
	{Name: "Australian Grand Prix", Round: 1, Country: "Australia", Aliases: []string{"australian gp", "melbourne", "albert park"}},
	{Name: "Chinese Grand Prix", Round: 2, Country: "China", Aliases: []string{"chinese gp", "shanghai"}},
	{Name: "Japanese Grand Prix", Round: 3, Country: "Japan", Aliases: []string{"japanese gp", "suzuka"}},
	{Name: "Bahrain Grand Prix", Round: 4, Country: "Bahrain", Aliases: []string{"bahrain gp", "sakhir"}},
	{Name: "Saudi Arabian Grand Prix", Round: 5, Country: "Saudi Arabia", Aliases: []string{"saudi arabian gp", "saudi gp", "jeddah"}},
	{Name: "Miami Grand Prix", Round: 6, Country: "United States", Aliases: []string{"miami gp"}},
	{Name: "Emilia Romagna Grand Prix", Round: 7, Country: "Italy", Aliases: []string{"emilia-romagna", "emilia romagna", "imola"}},
	{Name: "Monaco Grand Prix", Round: 8, Country: "Monaco", Aliases: []string{"monaco gp", "monte carlo"}},
	{Name: "Spanish Grand Prix", Round: 9, Country: "Spain", Aliases: []string{"spanish gp", "barcelona", "catalunya"}},
	{Name: "Canadian Grand Prix", Round: 10, Country: "Canada", Aliases: []string{"canadian gp", "montreal"}},
	{Name: "Austrian Grand Prix", Round: 11, Country: "Austria", Aliases: []string{"austrian gp", "red bull ring", "spielberg"}},
	{Name: "British Grand Prix", Round: 12, Country: "United Kingdom", Aliases: []string{"british gp", "silverstone"}},
	{Name: "Belgian Grand Prix", Round: 13, Country: "Belgium", Aliases: []string{"belgian gp", "spa-francorchamps", "francorchamps"}},
	{Name: "Hungarian Grand Prix", Round: 14, Country: "Hungary", Aliases: []string{"hungarian gp", "hungaroring"}},
	{Name: "Dutch Grand Prix", Round: 15, Country: "Netherlands", Aliases: []string{"dutch gp", "zandvoort"}},
	{Name: "Italian Grand Prix", Round: 16, Country: "Italy", Aliases: []string{"italian gp", "monza"}},
	{Name: "Azerbaijan Grand Prix", Round: 17, Country: "Azerbaijan", Aliases: []string{"azerbaijan gp", "baku"}},
	{Name: "Singapore Grand Prix", Round: 18, Country: "Singapore", Aliases: []string{"singapore gp", "marina bay"}},
	{Name: "United States Grand Prix", Round: 19, Country: "United States", Aliases: []string{"united states gp", "us grand prix", "austin"}},
	{Name: "Mexico City Grand Prix", Round: 20, Country: "Mexico", Aliases: []string{"mexico city gp", "mexican grand prix", "mexico grand prix"}},
	{Name: "São Paulo Grand Prix", Round: 21, Country: "Brazil", Aliases: []string{"sao paulo gp", "brazilian grand prix", "interlagos"}},
	{Name: "Las Vegas Grand Prix", Round: 22, Country: "United States", Aliases: []string{"las vegas gp", "vegas"}},
	{Name: "Qatar Grand Prix", Round: 23, Country: "Qatar", Aliases: []string{"qatar gp", "lusail"}},
	{Name: "Abu Dhabi Grand Prix", Round: 24, Country: "United Arab Emirates", Aliases: []string{"abu dhabi gp", "yas marina"}},
}
