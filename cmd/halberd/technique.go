package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/halberd/cmd/halberd/internal"
	"github.com/vectra-ai-research/halberd/internal/technique"
)

var techniqueCmd = &cobra.Command{
	Use:   "technique",
	Short: "Inspect registered attack techniques",
}

var techniqueSurface string

var techniqueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered techniques",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var descriptors []technique.Descriptor
		if techniqueSurface != "" {
			descriptors, err = app.registry.ListBySurface(technique.AttackSurface(techniqueSurface))
			if err != nil {
				return internal.WrapError(internal.ExitError, "invalid surface "+techniqueSurface, err)
			}
		} else {
			descriptors = app.registry.Descriptors()
		}

		flags, _ := ParseGlobalFlags(cmd)
		rows := make([][]string, 0, len(descriptors))
		for _, desc := range descriptors {
			rows = append(rows, []string{
				desc.ID,
				desc.Name,
				desc.Surface.String(),
				strings.Join(desc.Tactics(), ", "),
			})
		}
		return flags.formatter(cmd).PrintTable(
			[]string{"ID", "Name", "Surface", "Tactics"}, rows)
	},
}

var techniqueShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a technique's metadata and parameters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		factory, err := app.registry.Get(args[0])
		if err != nil {
			return err
		}
		tech := factory()
		desc := tech.Descriptor()

		flags, _ := ParseGlobalFlags(cmd)
		if flags.GetOutputFormat() == internal.FormatJSON {
			return flags.formatter(cmd).PrintJSON(map[string]any{
				"descriptor": desc,
				"parameters": tech.GetParameters(),
			})
		}

		cmd.Printf("ID:          %s\n", desc.ID)
		cmd.Printf("Name:        %s\n", desc.Name)
		cmd.Printf("Surface:     %s\n", desc.Surface)
		cmd.Printf("Description: %s\n", desc.Description)
		for _, mt := range desc.MitreTechniques {
			cmd.Printf("MITRE:       %s %s (%s)\n", mt.TechniqueID, mt.TechniqueName, mt.URL())
		}
		for _, trm := range desc.AzureTRMTechniques {
			cmd.Printf("Azure TRM:   %s %s (%s)\n", trm.TechniqueID, trm.TechniqueName, trm.URL())
		}
		for _, ref := range desc.References {
			cmd.Printf("Reference:   %s (%s)\n", ref.Title, ref.Link)
		}
		for _, note := range desc.Notes {
			cmd.Printf("Note:        %s\n", note)
		}

		params := tech.GetParameters()
		if len(params) == 0 {
			cmd.Println("\nNo parameters.")
			return nil
		}
		cmd.Println()
		rows := make([][]string, 0, len(params))
		for name, spec := range params {
			rows = append(rows, []string{
				name,
				string(spec.Type),
				fmt.Sprintf("%v", spec.Required),
				fmt.Sprintf("%v", spec.Default),
				spec.InputHint,
			})
		}
		return flags.formatter(cmd).PrintTable(
			[]string{"Parameter", "Type", "Required", "Default", "Hint"}, rows)
	},
}

var techniqueTacticsCmd = &cobra.Command{
	Use:   "tactics SURFACE",
	Short: "List MITRE tactics covered on an attack surface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		tactics, err := app.registry.Tactics(technique.AttackSurface(args[0]))
		if err != nil {
			return internal.WrapError(internal.ExitError, "invalid surface "+args[0], err)
		}

		flags, _ := ParseGlobalFlags(cmd)
		if flags.GetOutputFormat() == internal.FormatJSON {
			return flags.formatter(cmd).PrintJSON(tactics)
		}
		for _, tactic := range tactics {
			cmd.Println(tactic)
		}
		return nil
	},
}

func init() {
	techniqueListCmd.Flags().StringVar(&techniqueSurface, "surface", "", "Filter by attack surface (azure|entra_id|aws|m365|gcp)")

	techniqueCmd.AddCommand(techniqueListCmd)
	techniqueCmd.AddCommand(techniqueShowCmd)
	techniqueCmd.AddCommand(techniqueTacticsCmd)
}
