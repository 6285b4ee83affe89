package cli

import (
	"fmt"
	"io"

	"github.com/diillson/aws-cost-report-go/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(w io.Writer) {
	banner := `
    _ __      __ ___     ___           _     ___                     _
   /_\\ \    / // __|   / __| ___  ___| |_  | _ \ ___  _ __  ___  _ _| |_
  / _ \\ \/\/ / \__ \  | (__ / _ \(_-<|  _| |   // -_)| '_ \/ _ \| '_|  _|
 /_/ \_\\_/\_/  |___/   \___|\___//__/ \__| |_|_\\___|| .__/\___/|_|  \__|
                                                      |_|
`
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Fprintln(w, red(banner))
	fmt.Fprintln(w, blue(fmt.Sprintf("AWS Cost Report CLI (v%s)", version.FormatVersion())))
}
