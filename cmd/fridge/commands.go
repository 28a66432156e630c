package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/fridge-monitor/internal/expiry"
	"github.com/angelmondragon/fridge-monitor/internal/images"
	"github.com/angelmondragon/fridge-monitor/internal/inventory"
	"github.com/angelmondragon/fridge-monitor/internal/nutrition"
	"github.com/angelmondragon/fridge-monitor/internal/recipes"
	"github.com/angelmondragon/fridge-monitor/pkg/enums"
	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/validators"
)

func (c *cli) scanInCmd() *cobra.Command {
	var imageURL string
	cmd := &cobra.Command{
		Use:   "scan-in <identifier>",
		Short: "Record items placed in the fridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.Inventory.ScanIn(cmd.Context(), inventory.ScanInput{Identifier: args[0], ImageURL: imageURL})
			if err != nil {
				return err
			}
			return c.write(result)
		},
	}
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Image reference stored on the event")
	return cmd
}

func (c *cli) scanOutCmd() *cobra.Command {
	var imageURL string
	cmd := &cobra.Command{
		Use:   "scan-out <identifier>",
		Short: "Record an item taken out of the fridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.Inventory.ScanOut(cmd.Context(), inventory.ScanInput{Identifier: args[0], ImageURL: imageURL})
			if err != nil {
				return err
			}
			return c.write(result)
		},
	}
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Image reference stored on the event")
	return cmd
}

func (c *cli) itemsCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Inventory.ListItems(cmd.Context(), enums.ItemStatus(status))
			if err != nil {
				return err
			}
			return c.write(items)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only list items with this status (in_fridge|removed)")
	return cmd
}

func (c *cli) itemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "item <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.app.Inventory.GetItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.write(item)
		},
	}
}

func (c *cli) patchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "patch <id> <json|->",
		Short:   "Edit an item's status, expiry, label or category",
		Example: `  echo '{"expiresAt":"2026-03-01"}' | fridge patch 3f1c... -`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := inventory.DecodePatch(c.jsonInput(args[1]))
			if err != nil {
				return err
			}
			item, err := c.app.Inventory.PatchItem(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return c.write(item)
		},
	}
}

func (c *cli) eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List scan events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.write(c.app.Inventory.ListEvents(cmd.Context()))
		},
	}
}

func (c *cli) alertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Show expiry alerts for items in the fridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.write(c.app.Alerts.Current(cmd.Context()))
		},
	}
}

func (c *cli) recommendCmd() *cobra.Command {
	var req recipes.Request
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank recipes against a macro target and fridge contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := c.app.Recipes.Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.write(recs)
		},
	}
	flags := cmd.Flags()
	flags.Float64Var(&req.Target.Calories, "calories", 0, "Target calories")
	flags.Float64Var(&req.Target.Protein, "protein", 0, "Target protein (g)")
	flags.Float64Var(&req.Target.Carbs, "carbs", 0, "Target carbs (g)")
	flags.Float64Var(&req.Target.Fat, "fat", 0, "Target fat (g)")
	flags.Float64Var(&req.MinCoverage, "min-coverage", 0, "Drop recipes covering less than this fraction of ingredients")
	flags.BoolVar(&req.PrioritizeExpiring, "prioritize-expiring", false, "Boost recipes that use soon-to-expire items")
	return cmd
}

func (c *cli) relatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "related <ingredient>",
		Short: "List recipes that use an ingredient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.write(c.app.Recipes.Related(cmd.Context(), args[0]))
		},
	}
}

func (c *cli) recipesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "List the recipe catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.write(c.app.Recipes.Recipes())
		},
	}
}

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or replace the shelf-life table",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show shelf-life days per category",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.write(c.app.Inventory.ExpiryDefaults(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:     "set <json|->",
			Short:   "Replace the whole shelf-life table",
			Example: `  fridge settings set '{"produce":5,"dairy":7,"other":14}'`,
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				defaults := expiry.Defaults{}
				if err := validators.DecodeJSON(c.jsonInput(args[0]), &defaults); err != nil {
					return err
				}
				saved, err := c.app.Inventory.SetExpiryDefaults(cmd.Context(), defaults)
				if err != nil {
					return err
				}
				return c.write(saved)
			},
		},
	)
	return cmd
}

type macroView struct {
	Label      string                `json:"label"`
	Macros     *nutrition.ItemMacros `json:"macros"`
	Overridden bool                  `json:"overridden"`
}

type macroListing struct {
	Defaults  []string                        `json:"defaults"`
	Overrides map[string]nutrition.ItemMacros `json:"overrides"`
}

func (c *cli) macrosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "macros",
		Short: "Inspect or override per-item nutrition",
	}
	view := func(cmd *cobra.Command, label string) error {
		ctx := cmd.Context()
		return c.write(macroView{
			Label:      validators.NormalizeLabel(label),
			Macros:     c.app.Macros.Get(ctx, label),
			Overridden: c.app.Macros.IsOverridden(ctx, label),
		})
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <label>",
			Short: "Show effective macros for a label",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return view(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:     "set <label> <json|->",
			Short:   "Override macros for a label",
			Example: `  fridge macros set eggs '{"calories":70,"protein":6,"carbs":0.5,"fat":5,"serving":"1 egg"}'`,
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				var macros nutrition.ItemMacros
				if err := validators.DecodeJSON(c.jsonInput(args[1]), &macros); err != nil {
					return err
				}
				if err := c.app.Macros.Set(cmd.Context(), args[0], macros); err != nil {
					return err
				}
				return view(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "reset <label>",
			Short: "Drop the override for a label",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Macros.Reset(cmd.Context(), args[0]); err != nil {
					return err
				}
				return view(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List default labels and all overrides",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.write(macroListing{
					Defaults:  nutrition.DefaultLabels(),
					Overrides: c.app.Macros.Overrides(cmd.Context()),
				})
			},
		},
	)
	return cmd
}

func (c *cli) imageCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "image [label|category]",
		Short:       "Resolve the static image for a label or category",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return c.write(images.List())
			}
			path, ok := images.Lookup(args[0])
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no image for "+args[0])
			}
			return c.write(images.Entry{Key: validators.NormalizeLabel(args[0]), Path: path})
		},
	}
}

// jsonInput reads the document from stdin when arg is "-".
func (c *cli) jsonInput(arg string) io.Reader {
	if arg == "-" {
		return c.stdin
	}
	return strings.NewReader(arg)
}
