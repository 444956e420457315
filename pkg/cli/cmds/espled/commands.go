package espled

import (
	"context"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/serterm/pkg/cli/sh"
	"github.com/robotalks/serterm/pkg/espled"
)

var (
	// NameCmd exposes GetName.
	NameCmd = ishell.Cmd{
		Name: "name",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoRequest(c, func(ctx context.Context, cli *espled.Client) (interface{}, error) {
				return cli.Name(ctx)
			})
		}),
	}

	// EffectsCmd exposes GetEffects.
	EffectsCmd = ishell.Cmd{
		Name:    "effects",
		Aliases: []string{"fx"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoRequest(c, func(ctx context.Context, cli *espled.Client) (interface{}, error) {
				return cli.Effects(ctx)
			})
		}),
	}

	// EffectCmd exposes GetEffect, or SetEffect with an argument.
	EffectCmd = ishell.Cmd{
		Name:    "effect",
		Aliases: []string{"e"},
		Help:    "[INDEX|NAME]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				sh.DoRequest(c, func(ctx context.Context, cli *espled.Client) (interface{}, error) {
					return cli.Effect(ctx)
				})
				return
			}
			sh.DoRequest(c, func(ctx context.Context, cli *espled.Client) (interface{}, error) {
				_, err := cli.SelectEffect(ctx, c.Args[0])
				return nil, err
			})
		}),
	}

	// ParamsCmd exposes GetParameters.
	ParamsCmd = ishell.Cmd{
		Name:    "params",
		Aliases: []string{"p"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoRequest(c, func(ctx context.Context, cli *espled.Client) (interface{}, error) {
				return cli.Parameters(ctx)
			})
		}),
	}

	// SetCmd exposes SetOption.
	SetCmd = ishell.Cmd{
		Name: "set",
		Help: "NAME VALUE(float or #rrggbb)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("NAME and VALUE required"))
				return
			}
			value, err := espled.ParseParameter(c.Args[1])
			if err != nil {
				c.Err(fmt.Errorf("Invalid VALUE: %v", err))
				return
			}
			sh.DoRequest(c, func(ctx context.Context, cli *espled.Client) (interface{}, error) {
				return nil, cli.SetOption(ctx, c.Args[0], value)
			})
		}),
	}
)

func init() {
	sh.AddCmds(
		&NameCmd,
		&EffectsCmd,
		&EffectCmd,
		&ParamsCmd,
		&SetCmd,
	)
}
