package stations

// defaultCityStations is the compiled-in city expansion table. Each list is
// ordered by provider preference and must be reproduced exactly as written;
// it is not alphabetical. Keys are matched case-insensitively.
var defaultCityStations = map[string][]Code{
	"delhi":      {"NDLS", "ANVT", "DLI", "DEE", "DEC", "SZM"},
	"new delhi":  {"NDLS"},
	"mumbai":     {"CSMT", "BCT", "DR", "LTT", "BDTS"},
	"kolkata":    {"HWH", "SDAH", "KOAA", "SHM"},
	"chennai":    {"MAS", "MS", "TBM"},
	"bengaluru":  {"SBC", "YPR", "BNC"},
	"bangalore":  {"SBC", "YPR", "BNC"},
	"hyderabad":  {"SC", "HYB", "KCG"},
	"pune":       {"PUNE"},
	"ahmedabad":  {"ADI"},
	"jaipur":     {"JP"},
	"lucknow":    {"LKO", "LJN"},
	"patna":      {"PNBE", "PPTA", "DNR"},
	"kanpur":     {"CNB"},
	"varanasi":   {"BSB", "BSBS"},
	"bhopal":     {"BPL", "RKMP"},
	"nagpur":     {"NGP", "AJNI"},
	"goa":        {"MAO", "THVM", "KRMI"},
	"amritsar":   {"ASR"},
	"chandigarh": {"CDG"},
}

// defaultExtraCodes registers station codes that appear in no city list but
// are valid pass-through inputs.
var defaultExtraCodes = []Code{
	"HJP", "GKP", "BZA", "VSKP", "ERS", "TVC", "CBE", "MDU",
	"RNC", "BBS", "GHY", "JAT", "DDN", "HW", "AGC", "GWL",
}
