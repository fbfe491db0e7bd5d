package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/xmss-go/xmss"
)

func cmdAlgs(c *cli.Context) error {
	for _, name := range xmss.ListNames() {
		fmt.Println(name)
	}
	return nil
}

func cmdKeygen(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return cli.NewExitError("usage: xmssmt keygen [--bds-k K] <name>", 1)
	}
	ctx, err := xmss.NewContextFromName(name)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	bdsK := uint32(c.Uint("bds-k"))

	var pkBytes []byte
	if ctx.Params().D == 1 {
		sk, pk, err := ctx.Keygen(bdsK)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		fmt.Printf("sk %s\n", hex.EncodeToString(sk.Bytes()))
		pkBytes = pk.Bytes()
	} else {
		_, pk, err := ctx.KeygenMT(bdsK)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		pkBytes = pk.Bytes()
	}
	fmt.Printf("pk %s\n", hex.EncodeToString(pkBytes))
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "xmssmt"
	app.Usage = "XMSS[MT] stateful hash-based signatures (RFC 8391)"

	app.Commands = []cli.Command{
		{
			Name:   "algs",
			Usage:  "List XMSS[MT] parameter sets",
			Action: cmdAlgs,
		},
		{
			Name:  "keygen",
			Usage: "Generate a fresh keypair for a named parameter set",
			Flags: []cli.Flag{
				cli.UintFlag{Name: "bds-k", Value: 2, Usage: "BDS retain parameter"},
			},
			Action: cmdKeygen,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
