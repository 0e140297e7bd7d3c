package domain

// ExperienceLevel selects the hourly rate tier used for SRS estimates.
type ExperienceLevel string

const (
	LevelJunior ExperienceLevel = "junior"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
)

// LevelProfile defines the rate, multiplier, and minimum project price of a level.
type LevelProfile struct {
	ID         ExperienceLevel
	Name       string
	Rate       int64
	Multiplier float64
	Floor      int64
}

// SRSDriver is a requirement category detected in free text.
type SRSDriver struct {
	ID       string
	Label    string
	Points   int
	Mentions int
	Reason   string
}

// SRSAnalysis is the effort score derived from free text.
type SRSAnalysis struct {
	TotalPoints int
	Drivers     []SRSDriver
}

// SRSPrice is the monetary estimate derived from an analysis.
type SRSPrice struct {
	Level     ExperienceLevel
	Hours     int64
	Computed  int64
	Base      int64
	Breakdown []BreakdownLine
}

// SRSAddon is an optional service sold on top of an SRS estimate.
type SRSAddon struct {
	ID    string
	Label string
	Price int64
}

// SRSQuoteConfig is what a saved SRS-mode request remembers about its estimate.
type SRSQuoteConfig struct {
	InputText string
	Analysis  SRSAnalysis
	Level     ExperienceLevel
	Addons    []string
}
