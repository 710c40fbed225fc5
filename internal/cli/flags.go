package cli

// Output formats of a translation
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	Provider  string
	Direction string
	APIKey    string
	Swap      bool
	BatchFile string
	Output    string
	Timeout   string
	LogLevel  string
	Lang      string

	// History flags
	Save bool
	User string

	// Audio flags
	Speak       bool
	AudioOutput string

	ListModels bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Direction: "id_to_jp",
		Output:    OutputText,
	}
}
