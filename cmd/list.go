package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/panekit/panekit/internal/manifest"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List panes declared in the manifest",
	Long: `List the navigation groups and panes declared in the pane manifest.

Examples:
  panekit list                     # Table of groups and panes
  panekit list --format json       # Machine-readable output
  panekit list -m demo.yml         # List a specific manifest`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "text", "Output format (text, json)")
	listCmd.Flags().StringP("manifest", "m", "panes.yml", "Pane manifest path")
	viper.BindPFlag("manifest.path", listCmd.Flags().Lookup("manifest"))
}

type listedPane struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Group    string `json:"group"`
	Mode     string `json:"mode"`
	Animated bool   `json:"animated"`
	Active   bool   `json:"active"`
}

func runList(cmd *cobra.Command, args []string) error {
	path := viper.GetString("manifest.path")
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	titler := cases.Title(language.English)
	panes := make([]listedPane, 0)
	for _, group := range m.Groups {
		mode := group.EffectiveMode(manifest.ModeTabs)
		for _, pane := range group.Panes {
			title := pane.Title
			if title == "" {
				title = titler.String(pane.Key)
			}
			panes = append(panes, listedPane{
				Key:      pane.Key,
				Title:    title,
				Group:    group.Name,
				Mode:     string(mode),
				Animated: pane.Animated,
				Active:   pane.Active,
			})
		}
	}

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(panes)
	case "text":
		fmt.Printf("%-16s %-20s %-12s %-10s %-8s %s\n", "KEY", "TITLE", "GROUP", "MODE", "ANIMATED", "ACTIVE")
		for _, p := range panes {
			fmt.Printf("%-16s %-20s %-12s %-10s %-8v %v\n", p.Key, p.Title, p.Group, p.Mode, p.Animated, p.Active)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", listFormat)
	}
}
