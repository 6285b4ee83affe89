package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile string
	Profile    string
	Days       int
	JSON       bool
	Tag        []string
	Budgets    bool
	NoChart    bool
	ReportName string
	ReportType []string
	Dir        string
}
