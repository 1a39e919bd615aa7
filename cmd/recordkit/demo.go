package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wippyai/recordkit"
	"github.com/wippyai/recordkit/accessor"
	"github.com/wippyai/recordkit/schema"
)

var demoCmd = &cobra.Command{
	Use:   "demo FILE",
	Short: "Create one record per contract and fill it through its setters",
	Long: `demo registers the contracts of FILE, creates one record of each, writes
the position of every primitive field into each of its elements using
the contract's own setters, and prints the result.`,
	Args: args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, paths []string) error {
		reg, closer, err := openRegistry(cmd.Context(), cfg, schema.DeclarationOrder, paths[0])
		if err != nil {
			return err
		}
		defer closer()
		return runDemo(cmd.OutOrStdout(), reg)
	},
}

func runDemo(w io.Writer, reg *recordkit.Registry) error {
	for _, s := range reg.Schemas() {
		c, err := reg.Create(s.ID())
		if err != nil {
			return err
		}
		for i, f := range s.Fields() {
			if err := fill(c, f, schema.Int(f.Kind, int64(i))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s @%#x: %s\n", s.Name(), c.Address(), c); err != nil {
			return err
		}
	}
	return nil
}

// fill writes v into every element of f the contract lets it reach.
// Fields without a setter are left zeroed.
func fill(c *accessor.Cursor, f *schema.Field, v schema.Value) error {
	if f.Nested != nil {
		return nil
	}
	at, single := setters(c.Schema(), f)
	switch {
	case at != nil:
		for i := range f.ElementCount {
			if err := c.SetAt(at.Name, i, v); err != nil {
				return err
			}
		}
	case single != nil:
		return c.Set(single.Name, v)
	}
	return nil
}

// setters finds the indexed and plain setters declared for f.
func setters(s *schema.Schema, f *schema.Field) (at, single *schema.Operation) {
	for _, op := range s.Operations() {
		if op.Field != f {
			continue
		}
		switch op.Action {
		case schema.SetValueAt:
			at = op
		case schema.SetValue:
			single = op
		}
	}
	return at, single
}
