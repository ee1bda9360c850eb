package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"kvtoolkit/kvconfig"
)

// storeStatus is the JSON shape printed by the check command: enough to
// confirm a configured store opens cleanly and report its size.
type storeStatus struct {
	Alias        string `json:"alias"`
	Engine       string `json:"engine"`
	Len          uint64 `json:"len"`
	Transactions bool   `json:"transactions"`
	OrderedLen   bool   `json:"ordered_len"`
}

func checkCommand(c *cli.Context) error {
	cfg, err := kvconfig.Load(c.String("config"))
	if err != nil {
		return err
	}
	alias := c.String("store")

	backend, err := cfg.OpenStore(alias)
	if err != nil {
		return err
	}

	n, err := backend.Len()
	if err != nil {
		return err
	}
	caps := backend.Capabilities()

	status := storeStatus{
		Alias:        alias,
		Engine:       cfg.Store[alias].Engine,
		Len:          n,
		Transactions: caps.Transactions,
		OrderedLen:   caps.OrderedLen,
	}
	body, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	fmt.Println(string(body))
	return nil
}
