package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "horizon",
	Short: "Horizon - 재무 리스크 분석 백엔드",
	Long: `Horizon Unified CLI

시계열 기반 재무 리스크 분석 시스템.
VaR/CVaR, Monte Carlo 시뮬레이션, 상관관계, KPI 보고서까지.

Usage:
  go run ./cmd/horizon [command]

Examples:
  go run ./cmd/horizon api
  go run ./cmd/horizon analyze --csv revenue.csv
  go run ./cmd/horizon simulate --dataset revenue --paths 10000
  go run ./cmd/horizon db init`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// --verbose는 config의 LOG_LEVEL보다 우선
		if verbose {
			os.Setenv("LOG_LEVEL", "debug")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// maskPassword hides the password portion of a connection URL for display
func maskPassword(url string) string {
	atIdx := strings.LastIndex(url, "@")
	if atIdx == -1 {
		return url
	}
	schemeIdx := strings.Index(url, "://")
	if schemeIdx == -1 {
		return url
	}

	credentials := url[schemeIdx+3 : atIdx]
	colonIdx := strings.Index(credentials, ":")
	if colonIdx == -1 {
		return url
	}

	return url[:schemeIdx+3] + credentials[:colonIdx] + ":****" + url[atIdx:]
}
